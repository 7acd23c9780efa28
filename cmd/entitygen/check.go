package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/entitygen"
	"github.com/tordrt/entitygen/internal/drift"
	"github.com/tordrt/entitygen/internal/formatter"
)

var (
	dbURL      string
	mysqlURL   string
	sqlitePath string
	format     string
	reportDir  string
)

var errDrift = errors.New("schema drift detected")

var checkCmd = &cobra.Command{
	Use:   "check <schema-file>...",
	Short: "Compare schema files with the live database tables",
	Long: `check reads the table each schema file persists to and reports columns the
generated Save and Delete statements need but the table lacks, along with
columns the entity does not declare. It exits non-zero when drift is found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	checkCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	checkCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	checkCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown (default: text)")
	checkCmd.Flags().StringVar(&reportDir, "report-dir", "", "Write one report file per entity plus an overview to this directory")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	url, err := databaseURL(dbURL, mysqlURL, sqlitePath, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	opts, err := generateOptions(cfg)
	if err != nil {
		return err
	}

	reports, err := entitygen.Check(cmd.Context(), url, args, opts)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}

	if reportDir != "" {
		if err := formatter.NewMultiFileFormatter(reportDir, format).Format(reports); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
	} else if err := formatter.Format(cmd.OutOrStdout(), format, reports); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if anyDrift(reports) {
		return errDrift
	}
	return nil
}

// databaseURL picks the connection from the backend flags, falling back to
// the configured URL. At most one backend flag may be set.
func databaseURL(pgURL, mysqlDSN, sqliteFile, configured string) (string, error) {
	dbCount := 0
	for _, v := range []string{pgURL, mysqlDSN, sqliteFile} {
		if v != "" {
			dbCount++
		}
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case pgURL != "":
		return pgURL, nil
	case mysqlDSN != "":
		if strings.HasPrefix(mysqlDSN, "mysql://") {
			return mysqlDSN, nil
		}
		return "mysql://" + mysqlDSN, nil
	case sqliteFile != "":
		return "sqlite://" + sqliteFile, nil
	case configured != "":
		return configured, nil
	default:
		return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}
}

func anyDrift(reports []drift.Report) bool {
	for i := range reports {
		if reports[i].HasDrift() {
			return true
		}
	}
	return false
}
