package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/entitygen"
	"github.com/tordrt/entitygen/internal/drift"
)

const playerProto = `message Player {
    int32 level;
    repeated uint64 items; // @fixed(8)
    string nickname;
}
`

// resetFlags restores every flag to its default between command runs
func resetFlags() {
	for _, c := range []*cobra.Command{rootCmd, checkCmd, watchCmd} {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("player.proto", []byte(playerProto), 0o644))

	stdout, _, err := execute(t, "player.proto")
	require.NoError(t, err)
	assert.Equal(t, "Generated: player.h\n", stdout)

	data, err := os.ReadFile("player.h")
	require.NoError(t, err)
	assert.Contains(t, string(data), "struct PlayerObject : public SharedObject {")
	assert.Contains(t, string(data), "REPLACE INTO player ")
}

func TestGenerateCommandFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("player.proto", []byte(playerProto), 0o644))

	stdout, _, err := execute(t, "player.proto", "-t", "role_data", "-d", "gen", "--dialect", "sqlite", "--namespace", "game::shm")
	require.NoError(t, err)
	assert.Equal(t, "Generated: "+filepath.Join("gen", "player.h")+"\n", stdout)

	data, err := os.ReadFile(filepath.Join("gen", "player.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "namespace game::shm {")
	assert.Contains(t, string(data), "INSERT OR REPLACE INTO role_data ")
}

func TestGenerateCommandGoTarget(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("player.proto", []byte(playerProto), 0o644))

	stdout, _, err := execute(t, "player.proto", "--target", "go", "--dialect", "postgres", "--package", "model")
	require.NoError(t, err)
	assert.Equal(t, "Generated: player.go\n", stdout)

	data, err := os.ReadFile("player.go")
	require.NoError(t, err)
	assert.Contains(t, string(data), "package model")
}

func TestGenerateCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("player.proto", []byte(playerProto), 0o644))
	require.NoError(t, os.WriteFile("entitygen.yaml", []byte("table: from_config\nsuffix: Row\n"), 0o644))

	_, _, err := execute(t, "player.proto")
	require.NoError(t, err)

	data, err := os.ReadFile("player.h")
	require.NoError(t, err)
	assert.Contains(t, string(data), "struct PlayerRow")
	assert.Contains(t, string(data), "REPLACE INTO from_config ")

	// an explicit flag beats the file
	_, _, err = execute(t, "player.proto", "--table", "from_flag")
	require.NoError(t, err)
	data, err = os.ReadFile("player.h")
	require.NoError(t, err)
	assert.Contains(t, string(data), "REPLACE INTO from_flag ")
}

func TestGenerateCommandWithoutArguments(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, stderr, err := execute(t)
	require.ErrorIs(t, err, errNoSchema)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "entitygen <schema-file>...")
	assert.Contains(t, stderr, errNoSchema.Error())
}

func TestGenerateCommandParseFailure(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("broken.proto", []byte("message Broken {\n repeated;\n}\n"), 0o644))

	stdout, stderr, err := execute(t, "broken.proto")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "broken.proto:2")
	assert.NoFileExists(t, "broken.h")
}

func TestGenerateCommandInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("player.proto", []byte(playerProto), 0o644))

	_, _, err := execute(t, "player.proto", "--dialect", "postgres")
	require.Error(t, err)
	assert.NoFileExists(t, "player.h")
}

func TestGenerateCommandMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("bag.proto", []byte("message Bag {\n uint64 roleId;\n repeated ItemObject items;\n}\n"), 0o644))
	require.NoError(t, os.WriteFile("item.proto", []byte("message Item {\n uint32 itemId;\n}\n"), 0o644))

	stdout, _, err := execute(t, "bag.proto", "item.proto", "--strict")
	require.NoError(t, err)
	assert.Equal(t, "Generated: bag.h\nGenerated: item.h\n", stdout)
	assert.FileExists(t, "bag.h")
	assert.FileExists(t, "item.h")
}

func TestCheckCommandRequiresDatabase(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "check", "player.proto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be specified")
}

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name       string
		pg         string
		mysql      string
		sqlite     string
		configured string
		want       string
		wantErr    bool
	}{
		{name: "postgres", pg: "postgres://localhost/game", want: "postgres://localhost/game"},
		{name: "mysql dsn", mysql: "root:pw@tcp(localhost:3306)/game", want: "mysql://root:pw@tcp(localhost:3306)/game"},
		{name: "mysql url", mysql: "mysql://root@tcp(localhost)/game", want: "mysql://root@tcp(localhost)/game"},
		{name: "sqlite", sqlite: "game.db", want: "sqlite://game.db"},
		{name: "configured", configured: "sqlite://cfg.db", want: "sqlite://cfg.db"},
		{name: "flag beats configured", sqlite: "game.db", configured: "sqlite://cfg.db", want: "sqlite://game.db"},
		{name: "none", wantErr: true},
		{name: "two", pg: "postgres://localhost/game", sqlite: "game.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := databaseURL(tt.pg, tt.mysql, tt.sqlite, tt.configured)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnyDrift(t *testing.T) {
	assert.False(t, anyDrift(nil))
	assert.False(t, anyDrift([]drift.Report{{Entity: "Player"}}))
	assert.True(t, anyDrift([]drift.Report{
		{Entity: "Player"},
		{Entity: "Guild", Findings: []drift.Finding{{Kind: drift.ExtraColumn, Column: "x"}}},
	}))
}

func TestWatchResolvesTypesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bag.proto"), []byte("message Bag {\n uint64 roleId;\n ItemObject main;\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item.proto"), []byte("message Item {\n uint32 itemId;\n}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, dir, &entitygen.Options{Strict: true}, nil, io.Discard)
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "bag.h"))
		return err == nil && bytes.Contains(data, []byte("ItemObject main{};"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestIsSchemaFile(t *testing.T) {
	assert.True(t, isSchemaFile("proto/player.proto"))
	assert.False(t, isSchemaFile("proto/player.h"))
	assert.False(t, isSchemaFile("proto/.player.h.123.tmp"))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player.proto"), []byte(playerProto), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, dir, &entitygen.Options{}, nil, io.Discard)
	}()

	// existing files are generated on start
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "player.h"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// new files are generated on change
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guild.proto"), []byte("message Guild {\n uint64 id;\n}\n"), 0o644))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "guild.h"))
		return err == nil && bytes.Contains(data, []byte("struct GuildObject"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
