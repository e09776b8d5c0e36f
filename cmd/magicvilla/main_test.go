package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/erazemk/magicvilla/internal/config"
	"github.com/erazemk/magicvilla/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvDriver, config.EnvDSN, config.EnvAddr, config.EnvLog, config.EnvSeed} {
		t.Setenv(k, "")
	}
}

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cleanup, err := setupLogger(config.Log{Format: config.FormatText}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("setupLogger: %v", err)
	}
	defer cleanup()

	slog.Info("villa created", "id", 1)
	slog.Warn("slow query")
	slog.Error("store unavailable")
	slog.Debug("hidden")

	if !strings.Contains(stdout.String(), "villa created") || !strings.Contains(stdout.String(), "slow query") {
		t.Errorf("stdout missing info/warn lines: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "store unavailable") {
		t.Error("error line should not go to stdout")
	}
	if !strings.Contains(stderr.String(), "store unavailable") {
		t.Errorf("stderr missing error line: %q", stderr.String())
	}
	if strings.Contains(stdout.String()+stderr.String(), "hidden") {
		t.Error("debug lines should be dropped")
	}
}

func TestLoggerJSONAndFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "magicvilla.log")
	cleanup, err := setupLogger(config.Log{Path: logPath, Format: config.FormatJSON}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("setupLogger: %v", err)
	}

	slog.Info("server started", "addr", ":8080")
	slog.Error("server error")
	cleanup()

	if !strings.HasPrefix(stdout.String(), "{") {
		t.Errorf("expected JSON output, got %q", stdout.String())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "server started") || !strings.Contains(string(data), "server error") {
		t.Errorf("log file missing lines: %s", data)
	}
}

func TestInitCommand(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "data", "villas.sqlite3")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", "--db", dbPath, "--seed"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if !strings.Contains(out.String(), "Seeded 2 demo villas") {
		t.Errorf("unexpected output: %q", out.String())
	}

	st, err := store.Open(context.Background(), store.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer st.Close()
	villas, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(villas) != 2 {
		t.Errorf("expected 2 seeded villas, got %d", len(villas))
	}
}

func TestInitBolt(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "villas.bolt")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", "--db-driver", "bolt", "--db", dbPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "(bolt)") {
		t.Errorf("unexpected output: %q", out.String())
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected bolt file: %v", err)
	}
}

func TestInvalidDriverFlag(t *testing.T) {
	clearEnv(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", "--db-driver", "mysql"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown database driver") {
		t.Errorf("expected driver error, got %v", err)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "magicvilla.yaml")
	os.WriteFile(cfgPath, []byte("addr: \":9000\"\nlog:\n  format: json\n"), 0o644)

	var got config.Config
	cmd := newRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	if err != nil {
		t.Fatalf("finding serve: %v", err)
	}
	serve.RunE = func(c *cobra.Command, _ []string) error {
		cfg, err := loadConfig(c, &flags{configPath: cfgPath, addr: ":7070"})
		got = cfg
		return err
	}
	cmd.SetArgs([]string{"serve", "--config", cfgPath, "--addr", ":7070"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("serve: %v", err)
	}

	if got.Addr != ":7070" {
		t.Errorf("flag should override file addr, got %q", got.Addr)
	}
	if got.Log.Format != config.FormatJSON {
		t.Errorf("file log format should be kept, got %q", got.Log.Format)
	}
}
