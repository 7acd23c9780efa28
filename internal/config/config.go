// Package config loads generator settings.
//
// Settings are layered: built-in defaults, then the YAML file, then the
// environment (a .env file is loaded first and never overrides variables that
// are already set), and finally command line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/entitygen/internal/emitter"
	"github.com/tordrt/entitygen/internal/sqlgen"
)

// DefaultFile is read when no config path is given and the file exists
const DefaultFile = "entitygen.yaml"

// DefaultTable is the table Save and Delete target when none is configured
const DefaultTable = "player"

// EnvPrefix prefixes every environment override
const EnvPrefix = "ENTITYGEN_"

// Config holds the generator settings
type Config struct {
	Table     string `yaml:"table"`
	OutputDir string `yaml:"output_dir"`
	Target    string `yaml:"target"`
	Dialect   string `yaml:"dialect"`

	Namespace string `yaml:"namespace"`
	Suffix    string `yaml:"suffix"`
	BaseClass string `yaml:"base_class"`
	Package   string `yaml:"package"`

	IdentifierField   string `yaml:"id_field"`
	KeyColumn         string `yaml:"key_column"`
	DeleteFlag        string `yaml:"delete_flag"`
	RequireIdentifier bool   `yaml:"require_id"`
	Strict            bool   `yaml:"strict"`

	// Types extends or overrides the primitive type table of the target
	Types map[string]string `yaml:"types"`

	DatabaseURL string `yaml:"db_url"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Table:           DefaultTable,
		Target:          emitter.TargetCPP,
		Dialect:         string(sqlgen.MySQL),
		Namespace:       emitter.DefaultNamespace,
		Suffix:          emitter.DefaultSuffix,
		BaseClass:       emitter.DefaultBaseClass,
		Package:         emitter.DefaultPackage,
		IdentifierField: emitter.DefaultIdentifierField,
		KeyColumn:       sqlgen.DefaultKeyColumn,
		DeleteFlag:      sqlgen.DefaultDeleteFlag,
	}
}

// Load builds the configuration from path and the environment.
// An empty path reads DefaultFile when present; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return cfg, err
	}

	if err := loadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TABLE":       &c.Table,
		"OUTPUT_DIR":  &c.OutputDir,
		"TARGET":      &c.Target,
		"DIALECT":     &c.Dialect,
		"NAMESPACE":   &c.Namespace,
		"SUFFIX":      &c.Suffix,
		"BASE_CLASS":  &c.BaseClass,
		"PACKAGE":     &c.Package,
		"ID_FIELD":    &c.IdentifierField,
		"KEY_COLUMN":  &c.KeyColumn,
		"DELETE_FLAG": &c.DeleteFlag,
		"DB_URL":      &c.DatabaseURL,
	}
	for key, dst := range strs {
		*dst = getenv(EnvPrefix+key, *dst)
	}

	bools := map[string]*bool{
		"REQUIRE_ID": &c.RequireIdentifier,
		"STRICT":     &c.Strict,
	}
	for key, dst := range bools {
		v, err := getenvBool(EnvPrefix+key, *dst)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getenvBool(k string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", k, err)
	}
	return b, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)

// Validate checks the values the generator cannot work with
func (c Config) Validate() error {
	if c.Target != "" && !slices.Contains(emitter.Targets(), c.Target) {
		return &emitter.ConfigError{Option: "target", Value: c.Target, Message: fmt.Sprintf("must be one of %v", emitter.Targets())}
	}

	dialect, err := sqlgen.ParseDialect(c.Dialect)
	if err != nil {
		return &emitter.ConfigError{Option: "dialect", Value: c.Dialect, Message: err.Error()}
	}
	if dialect == sqlgen.Postgres && (c.Target == "" || c.Target == emitter.TargetCPP) {
		return &emitter.ConfigError{Option: "dialect", Value: c.Dialect, Message: "the cpp target supports mysql and sqlite only"}
	}

	names := map[string]string{
		"table":       c.Table,
		"key_column":  c.KeyColumn,
		"delete_flag": c.DeleteFlag,
	}
	for option, value := range names {
		if value != "" && !identRe.MatchString(value) {
			return &emitter.ConfigError{Option: option, Value: value, Message: "must be a SQL identifier"}
		}
	}
	return nil
}

// EmitterOptions converts the configuration for emitter.New
func (c Config) EmitterOptions() (emitter.Options, error) {
	dialect, err := sqlgen.ParseDialect(c.Dialect)
	if err != nil {
		return emitter.Options{}, err
	}
	return emitter.Options{
		Dialect:         dialect,
		Types:           c.Types,
		Suffix:          c.Suffix,
		Namespace:       c.Namespace,
		BaseClass:       c.BaseClass,
		Package:         c.Package,
		KeyColumn:       c.KeyColumn,
		DeleteFlag:      c.DeleteFlag,
		IdentifierField: c.IdentifierField,
	}, nil
}
