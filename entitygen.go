// Package entitygen generates persistent entity declarations from a small
// protobuf-like schema language.
//
// Each schema file declares one message. The generator emits a declaration of
// that message for the target language together with two persistence methods:
// Save, which replaces or inserts the row, and Delete, which flags the row as
// deleted. Both report whether at least one row was affected.
//
// # Quick Start
//
// The simplest way to use this package is with GenerateFile:
//
//	path, err := entitygen.GenerateFile(
//		context.Background(),
//		"proto/player.proto",
//		&entitygen.Options{Table: "player"},
//		nil, // write proto/player.h
//	)
//
// # Targets
//
// Supported targets:
//   - cpp (default): a C++ header with a struct deriving from SharedObject
//   - go: a Go file with a struct and database/sql based methods
//
// # Dialects
//
// The SQL embedded in Save and Delete follows the configured dialect:
//   - mysql (default): REPLACE INTO ...
//   - sqlite: INSERT OR REPLACE INTO ...
//   - postgres (go target only): INSERT ... ON CONFLICT DO UPDATE
//
// # Batches
//
// GenerateFiles parses every file before emitting anything, so a field may use
// the generated type of a message in another file (ItemObject for message Item)
// regardless of order.
package entitygen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/entitygen/internal/db"
	"github.com/tordrt/entitygen/internal/drift"
	"github.com/tordrt/entitygen/internal/emitter"
	"github.com/tordrt/entitygen/internal/parser"
	"github.com/tordrt/entitygen/internal/schema"
	"github.com/tordrt/entitygen/internal/sqlgen"
	"github.com/tordrt/entitygen/internal/typemap"
	"github.com/tordrt/entitygen/internal/writer"
)

// DefaultTable is used when neither Options.Table nor a @table annotation names one
const DefaultTable = "player"

// Options configures code generation.
//
// All fields are optional. If not specified:
//   - Target: "cpp"
//   - Table: "player"
//   - Emitter: the defaults of the target (see emitter.Options)
type Options struct {
	// Target selects the generated language: "cpp" or "go".
	Target string

	// Table is the table Save and Delete run against.
	// A @table(name) annotation on the message overrides it.
	Table string

	// Emitter shapes the generated declaration and its SQL.
	Emitter emitter.Options

	// RequireIdentifier fails generation when no field is marked @id.
	RequireIdentifier bool

	// Strict turns unresolved field types into errors.
	// By default they are logged as warnings and emitted unchanged.
	Strict bool

	// Registry holds the generated type names known to the run (see
	// emitter.TypeName). Field types naming a registered type are not reported
	// as unresolved. GenerateFiles fills its own registry when this is nil.
	Registry *typemap.Registry
}

// OutputOptions configures where generated code is written.
//
// If Writer is set the output goes there and no file is created.
// Otherwise the file is written to OutputDir, or beside the input when
// OutputDir is empty.
type OutputOptions struct {
	// Writer receives the generated code instead of a file.
	Writer io.Writer

	// OutputDir is the directory for generated files.
	// The directory will be created if it doesn't exist.
	OutputDir string
}

// Result is the outcome of generating one entity
type Result struct {
	Entity *schema.Entity

	// Output is the generated source text
	Output []byte

	// Extension is the file extension of the target, e.g. ".h"
	Extension string

	// Warnings lists field types that are neither primitive nor registered.
	// Empty in strict mode, where they fail generation instead.
	Warnings []*typemap.UnresolvedType
}

// Generate parses src and renders the entity it declares.
//
// Returns an error if:
//   - the source does not parse (errors.Is(err, parser.ErrParse))
//   - a field type is unresolved in strict mode (errors.Is(err, typemap.ErrUnresolvedType))
//   - the options are invalid (errors.Is(err, emitter.ErrInvalidConfig))
func Generate(src []byte, opts *Options) (*Result, error) {
	return generate("", src, opts)
}

func generate(filename string, src []byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	entity, err := parser.Parse(filename, src, parseOptions(opts)...)
	if err != nil {
		return nil, err
	}

	return render(entity, opts, opts.Registry)
}

func parseOptions(opts *Options) []parser.Option {
	if opts.RequireIdentifier {
		return []parser.Option{parser.RequireIdentifier()}
	}
	return nil
}

func render(entity *schema.Entity, opts *Options, reg *typemap.Registry) (*Result, error) {
	em, err := emitter.New(opts.Target, opts.Emitter)
	if err != nil {
		return nil, err
	}

	unresolved := typemap.Unresolved(entity, emitter.TypeMapping(em.Language(), opts.Emitter.Types), reg)
	if len(unresolved) > 0 && opts.Strict {
		errs := make([]error, 0, len(unresolved))
		for _, u := range unresolved {
			errs = append(errs, u)
		}
		return nil, errors.Join(errs...)
	}
	for _, u := range unresolved {
		logger.Warning(u.Error())
	}

	conventional := opts.Emitter.IdentifierField
	if conventional == "" {
		conventional = emitter.DefaultIdentifierField
	}
	if name, declared := entity.Identifier(conventional); !declared {
		logger.Warning(fmt.Sprintf("%s: no field is marked @id or named %s, Delete filters on %s", entity.Name, name, name))
	}

	out, err := em.Emit(entity, TableName(entity, opts.Table))
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", entity.Name, err)
	}

	return &Result{
		Entity:    entity,
		Output:    out,
		Extension: em.FileExtension(),
		Warnings:  unresolved,
	}, nil
}

// TableName returns the table the entity persists to.
// A @table annotation wins over table, and DefaultTable is the fallback.
func TableName(e *schema.Entity, table string) string {
	if e.Table != "" {
		return e.Table
	}
	if table != "" {
		return table
	}
	return DefaultTable
}

// GenerateFile generates code for the schema file at path and returns the
// path of the written file, or "" when the output went to out.Writer.
//
// The file is replaced atomically: a failed run never leaves a partial file.
//
// Example:
//
//	path, err := entitygen.GenerateFile(ctx, "proto/player.proto",
//		&entitygen.Options{Emitter: emitter.Options{Dialect: sqlgen.SQLite}},
//		&entitygen.OutputOptions{OutputDir: "include/shm"},
//	)
func GenerateFile(ctx context.Context, path string, opts *Options, out *OutputOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file: %w", err)
	}

	res, err := generate(path, src, opts)
	if err != nil {
		return "", err
	}

	return emit(path, res, out, writer.New())
}

func emit(input string, res *Result, out *OutputOptions, w *writer.Writer) (string, error) {
	if out == nil {
		out = &OutputOptions{}
	}

	if out.Writer != nil {
		if _, err := out.Writer.Write(res.Output); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		return "", nil
	}

	dst := OutputPath(input, res.Extension, out.OutputDir)
	if err := w.WriteFile(dst, res.Output); err != nil {
		return "", err
	}
	logger.Verbose("wrote", dst, "for", res.Entity.Name)
	return dst, nil
}

// GenerateFiles generates code for every schema file in paths.
//
// All files are parsed first and the type generated for every message is
// registered, so a field may use the type of a message declared in another
// file of the batch (ItemObject for message Item by default). Emission
// then runs concurrently. Any failure fails the batch; files already written
// by other workers are kept.
//
// The returned paths follow the order of the input.
func GenerateFiles(ctx context.Context, paths []string, opts *Options, out *OutputOptions) ([]string, error) {
	if opts == nil {
		opts = &Options{}
	}
	if out != nil && out.Writer != nil && len(paths) > 1 {
		return nil, fmt.Errorf("cannot write %d files to a single writer", len(paths))
	}

	reg := opts.Registry
	if reg == nil {
		reg = typemap.NewRegistry()
	}

	entities := make([]*schema.Entity, len(paths))
	for i, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		entity, err := parser.Parse(path, src, parseOptions(opts)...)
		if err != nil {
			return nil, err
		}
		entities[i] = entity
		reg.Register(emitter.TypeName(entity, opts.Emitter.Suffix))
	}

	w := writer.New()
	written := make([]string, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	for i, entity := range entities {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := render(entity, opts, reg)
			if err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			dst, err := emit(paths[i], res, out, w)
			if err != nil {
				return err
			}
			written[i] = dst
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// OutputPath returns where the code generated from input is written: the
// input's base name with ext, in dir or beside the input when dir is empty.
func OutputPath(input, ext, dir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

// Check compares the entities declared in paths with the live tables at
// databaseURL and returns one report per file.
//
// Supported URL schemes:
//   - postgres:// or postgresql://
//   - mysql://
//   - sqlite://
//
// Example:
//
//	reports, err := entitygen.Check(ctx, "sqlite://game.db", []string{"proto/player.proto"}, nil)
//	for _, r := range reports {
//		if r.HasDrift() {
//			fmt.Println(r.Entity, "drifted")
//		}
//	}
func Check(ctx context.Context, databaseURL string, paths []string, opts *Options) ([]drift.Report, error) {
	if opts == nil {
		opts = &Options{}
	}

	reader, err := db.Open(ctx, databaseURL, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	return CheckWith(ctx, reader, paths, opts)
}

// CheckWith runs Check against an already opened reader
func CheckWith(ctx context.Context, reader db.TableReader, paths []string, opts *Options) ([]drift.Report, error) {
	if opts == nil {
		opts = &Options{}
	}

	key := opts.Emitter.KeyColumn
	if key == "" {
		key = sqlgen.DefaultKeyColumn
	}
	flag := opts.Emitter.DeleteFlag
	if flag == "" {
		flag = sqlgen.DefaultDeleteFlag
	}

	reports := make([]drift.Report, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		entity, err := parser.Parse(path, src, parseOptions(opts)...)
		if err != nil {
			return nil, err
		}

		table, err := reader.ReadTable(ctx, TableName(entity, opts.Table))
		if err != nil {
			return nil, fmt.Errorf("failed to read table for %s: %w", entity.Name, err)
		}

		r := drift.Compare(entity, table, key, flag)
		if r.HasDrift() {
			logger.Verbose(entity.Name, "drifted from", table.Name, "with", len(r.Findings), "findings")
		}
		reports = append(reports, r)
	}
	return reports, nil
}
