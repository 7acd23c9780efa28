package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/tordrt/entitygen"
	"github.com/tordrt/entitygen/internal/emitter"
	"github.com/tordrt/entitygen/internal/parser"
	"github.com/tordrt/entitygen/internal/typemap"
)

const schemaExt = ".proto"

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Regenerate schema files in a directory whenever they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := generateOptions(cfg)
	if err != nil {
		return err
	}

	return watch(cmd.Context(), args[0], opts, &entitygen.OutputOptions{OutputDir: cfg.OutputDir}, cmd.OutOrStdout())
}

// watch generates every schema file in dir once and then again on each
// change until ctx is done. Generation failures are logged and do not stop
// the watch. The types generated from every schema in dir are registered
// first, so files may reference each other.
func watch(ctx context.Context, dir string, opts *entitygen.Options, out *entitygen.OutputOptions, w io.Writer) error {
	watchOpts := *opts
	if watchOpts.Registry == nil {
		watchOpts.Registry = typemap.NewRegistry()
	}
	opts = &watchOpts

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var schemas []string
	for _, e := range entries {
		if !e.IsDir() && isSchemaFile(e.Name()) {
			schemas = append(schemas, filepath.Join(dir, e.Name()))
		}
	}
	for _, path := range schemas {
		register(opts, path)
	}
	for _, path := range schemas {
		regenerate(ctx, path, opts, out, w)
	}
	logger.Info("watching", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSchemaFile(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			register(opts, event.Name)
			regenerate(ctx, event.Name, opts, out, w)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error:", err)
		}
	}
}

func regenerate(ctx context.Context, path string, opts *entitygen.Options, out *entitygen.OutputOptions, w io.Writer) {
	dst, err := entitygen.GenerateFile(ctx, path, opts, out)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	_, _ = fmt.Fprintf(w, "Generated: %s\n", dst)
}

// register adds the type generated from path to the registry. Files that do
// not parse are skipped here and reported by regenerate.
func register(opts *entitygen.Options, path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		return
	}
	entity, err := parser.Parse(path, src)
	if err != nil {
		return
	}
	opts.Registry.Register(emitter.TypeName(entity, opts.Emitter.Suffix))
}

func isSchemaFile(name string) bool {
	return strings.HasSuffix(name, schemaExt)
}
