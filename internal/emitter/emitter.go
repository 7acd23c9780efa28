// Package emitter renders a parsed entity into a target-language declaration
// with Save and Delete persistence methods.
package emitter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tordrt/entitygen/internal/schema"
	"github.com/tordrt/entitygen/internal/sqlgen"
	"github.com/tordrt/entitygen/internal/typemap"
)

// Supported targets
const (
	TargetCPP = "cpp"
	TargetGo  = "go"
)

// Defaults applied by New for empty options
const (
	DefaultNamespace       = "cfl::shm"
	DefaultSuffix          = "Object"
	DefaultBaseClass       = "SharedObject"
	DefaultPackage         = "entity"
	DefaultIdentifierField = "roleId"
)

// ErrInvalidConfig is matched by every *ConfigError
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports an option value the emitter cannot work with
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Option, e.Value, e.Message)
}

// Is reports whether target is ErrInvalidConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Emitter generates code for one target language
type Emitter interface {
	// Emit renders e with its persistence statements bound to table
	Emit(e *schema.Entity, table string) ([]byte, error)

	// Language returns the target name, e.g. "cpp"
	Language() string

	// FileExtension returns the extension of generated files, e.g. ".h"
	FileExtension() string
}

// Options configures an emitter
type Options struct {
	Dialect sqlgen.Dialect

	// Types overrides or extends the target's primitive type table
	Types map[string]string

	// Suffix is appended to the message name to form the generated type name
	Suffix string

	// Namespace and BaseClass shape the C++ declaration
	Namespace string
	BaseClass string

	// Package names the generated Go package
	Package string

	// KeyColumn and DeleteFlag are the columns used by the soft delete
	KeyColumn  string
	DeleteFlag string

	// IdentifierField is the conventional identifier used when no field is marked @id
	IdentifierField string
}

func (o Options) withDefaults() Options {
	if o.Dialect == "" {
		o.Dialect = sqlgen.MySQL
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.BaseClass == "" {
		o.BaseClass = DefaultBaseClass
	}
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.KeyColumn == "" {
		o.KeyColumn = sqlgen.DefaultKeyColumn
	}
	if o.DeleteFlag == "" {
		o.DeleteFlag = sqlgen.DefaultDeleteFlag
	}
	if o.IdentifierField == "" {
		o.IdentifierField = DefaultIdentifierField
	}
	return o
}

// Targets returns the supported target names
func Targets() []string {
	targets := []string{TargetCPP, TargetGo}
	sort.Strings(targets)
	return targets
}

// New creates the emitter for target. An empty target selects C++.
func New(target string, opts Options) (Emitter, error) {
	opts = opts.withDefaults()

	switch target {
	case "", TargetCPP:
		if opts.Dialect == sqlgen.Postgres {
			return nil, &ConfigError{Option: "dialect", Value: opts.Dialect, Message: "the cpp target supports mysql and sqlite only"}
		}
		return newCPPEmitter(opts, typemap.CPP().With(opts.Types))
	case TargetGo:
		return newGoEmitter(opts, typemap.Go().With(opts.Types)), nil
	default:
		return nil, &ConfigError{Option: "target", Value: target, Message: fmt.Sprintf("must be one of %v", Targets())}
	}
}

// TypeMapping returns the primitive type table New would use for target
func TypeMapping(target string, overrides map[string]string) typemap.Mapping {
	if target == TargetGo {
		return typemap.Go().With(overrides)
	}
	return typemap.CPP().With(overrides)
}

// TypeName returns the generated type name for e
func TypeName(e *schema.Entity, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return e.Name + suffix
}
