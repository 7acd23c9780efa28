package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/tordrt/entitygen"
	"github.com/tordrt/entitygen/internal/config"
)

var (
	configPath string
	verbose    bool

	table      string
	outputDir  string
	target     string
	dialect    string
	namespace  string
	suffix     string
	pkgName    string
	idField    string
	requireID  bool
	strictMode bool
)

var errNoSchema = errors.New("at least one schema file is required")

var rootCmd = &cobra.Command{
	Use:   "entitygen <schema-file>...",
	Short: "Generate persistent entity declarations from schema files",
	Long: `entitygen reads message declarations written in a small protobuf-like schema
language and generates, for each file, a declaration with Save and Delete
methods that persist the entity through SQL.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: entitygen.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.PersistentFlags().StringVarP(&table, "table", "t", config.DefaultTable, "Table used by Save and Delete")
	rootCmd.PersistentFlags().BoolVar(&requireID, "require-id", false, "Fail when no field is marked @id")
	rootCmd.PersistentFlags().StringVar(&idField, "id-field", "", "Identifier field used when no field is marked @id (default: roleId)")

	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory (default: beside each schema file)")
	rootCmd.PersistentFlags().StringVar(&target, "target", "", "Target language: cpp or go (default: cpp)")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", "SQL dialect: mysql, sqlite or postgres (default: mysql)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "C++ namespace (default: cfl::shm)")
	rootCmd.PersistentFlags().StringVar(&suffix, "suffix", "", "Suffix appended to generated type names (default: Object)")
	rootCmd.PersistentFlags().StringVar(&pkgName, "package", "", "Go package of generated files (default: entity)")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "Fail on field types that are neither primitive nor generated")

	rootCmd.AddCommand(checkCmd, watchCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if verbose {
		logger.SetLogLevel(logger.LogLevelVerbose)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.SetOut(cmd.OutOrStdout())
		_ = cmd.Usage()
		return errNoSchema
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := generateOptions(cfg)
	if err != nil {
		return err
	}

	written, err := entitygen.GenerateFiles(cmd.Context(), args, opts, &entitygen.OutputOptions{OutputDir: cfg.OutputDir})
	if err != nil {
		return err
	}
	for _, path := range written {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", path)
	}
	return nil
}

// loadConfig layers the flags the user set over the configuration file and environment
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	strs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"table", table, &cfg.Table},
		{"output-dir", outputDir, &cfg.OutputDir},
		{"target", target, &cfg.Target},
		{"dialect", dialect, &cfg.Dialect},
		{"namespace", namespace, &cfg.Namespace},
		{"suffix", suffix, &cfg.Suffix},
		{"package", pkgName, &cfg.Package},
		{"id-field", idField, &cfg.IdentifierField},
	}
	for _, s := range strs {
		if flags.Changed(s.name) {
			*s.dst = s.src
		}
	}
	if flags.Changed("require-id") {
		cfg.RequireIdentifier = requireID
	}
	if flags.Changed("strict") {
		cfg.Strict = strictMode
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	logger.Verbose("config:", fmt.Sprintf("%+v", cfg))
	return cfg, nil
}

func generateOptions(cfg config.Config) (*entitygen.Options, error) {
	emitOpts, err := cfg.EmitterOptions()
	if err != nil {
		return nil, err
	}
	return &entitygen.Options{
		Target:            cfg.Target,
		Table:             cfg.Table,
		Emitter:           emitOpts,
		RequireIdentifier: cfg.RequireIdentifier,
		Strict:            cfg.Strict,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
