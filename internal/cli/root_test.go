package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	if cmd.Use != "shardexec" {
		t.Errorf("expected use 'shardexec', got %q", cmd.Use)
	}

	expectedCommands := []string{
		"version",
		"completion",
		"shard",
		"query",
		"update",
		"exec",
	}

	for _, cmdName := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--help"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	help := output.String()
	for _, want := range []string{"shardexec", "shards", "query", "update", "exec", "shard"} {
		if !strings.Contains(help, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestRootCommandFlagDefaults(t *testing.T) {
	cmd := newRootCmd()

	tests := []struct {
		flag     string
		expected string
	}{
		{flag: "config", expected: ""},
		{flag: "shards", expected: "[]"},
		{flag: "output", expected: ""},
		{flag: "verbose", expected: "false"},
		{flag: "no-color", expected: "false"},
		{flag: "timeout", expected: (30 * time.Second).String()},
		{flag: "parallel", expected: "5"},
		{flag: "log-file", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.flag)
			}
			if flag.DefValue != tt.expected {
				t.Errorf("expected default value %q, got %q", tt.expected, flag.DefValue)
			}
		})
	}
}

func TestRootCommandSilenceFlags(t *testing.T) {
	cmd := newRootCmd()

	if !cmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if !cmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}
}

func TestRootCommandShortFlags(t *testing.T) {
	cmd := newRootCmd()

	shortFlags := map[string]string{
		"o": "output",
		"v": "verbose",
		"p": "parallel",
	}

	for short, long := range shortFlags {
		shortFlag := cmd.PersistentFlags().ShorthandLookup(short)
		if shortFlag == nil {
			t.Errorf("expected short flag -%s for %s", short, long)
			continue
		}
		if shortFlag.Name != long {
			t.Errorf("expected short flag -%s to map to %s, got %s", short, long, shortFlag.Name)
		}
	}
}

func TestNewLogFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shardexec.log")

	lf := newLogFile(path, 0, -1)
	defer lf.Close()

	if lf.Filename != path {
		t.Errorf("Filename = %q, want %q", lf.Filename, path)
	}
	if lf.MaxSize != 100 || lf.MaxBackups != 3 {
		t.Errorf("unexpected rotation settings: size=%d backups=%d", lf.MaxSize, lf.MaxBackups)
	}
	if !lf.Compress {
		t.Error("rotated files should be compressed")
	}
}

func TestTeeHandler(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(newTeeHandler(debug, info)).With("shard", "ds_0")

	logger.Debug("unit added")
	logger.Info("statement executed")

	if !strings.Contains(debugBuf.String(), "unit added") || !strings.Contains(debugBuf.String(), "statement executed") {
		t.Errorf("debug handler missed records:\n%s", debugBuf.String())
	}
	if strings.Contains(infoBuf.String(), "unit added") {
		t.Errorf("info handler should drop debug records:\n%s", infoBuf.String())
	}
	if !strings.Contains(infoBuf.String(), `"shard":"ds_0"`) {
		t.Errorf("attributes not propagated:\n%s", infoBuf.String())
	}

	if !newTeeHandler(info).Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level to be enabled")
	}
	if newTeeHandler(info).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be disabled")
	}
}

// writeEmptyConfig keeps commands away from the user's real config file
func writeEmptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  parallel: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLogFileFlag(t *testing.T) {
	t.Cleanup(closeLogFile)
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	path := filepath.Join(t.TempDir(), "shardexec.log")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--config", writeEmptyConfig(t), "--log-file", path, "--verbose"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	if logFile == nil || logFile.Filename != path {
		t.Fatalf("expected log file %s to be configured", path)
	}
	closeLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "verbose logging enabled") {
		t.Errorf("unexpected log content:\n%s", data)
	}
}
