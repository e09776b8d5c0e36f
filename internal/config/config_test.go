package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/magicvilla/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "magicvilla.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDriver, EnvDSN, EnvAddr, EnvLog, EnvSeed} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, `
addr: ":9090"
seed: true
database:
  driver: bolt
log:
  path: /tmp/villa.log
  format: json
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || !cfg.Seed {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Database.Driver != store.DriverBolt || cfg.Database.DSN != "magicvilla.bolt" {
		t.Errorf("expected bolt with default dsn, got %+v", cfg.Database)
	}
	if cfg.Log.Path != "/tmp/villa.log" || cfg.Log.Format != FormatJSON {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty file should keep defaults, got %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	_, err := Load(writeConfig(t, "listen: \":80\"\n"))
	if err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, "addr: \":9090\"\ndatabase:\n  driver: bolt\n  dsn: data/villas.bolt\n")

	t.Setenv(EnvDriver, "Postgres")
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvSeed, "true")
	t.Setenv(EnvLog, "server.log")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != store.DriverPostgres {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != DefaultDSN(store.DriverPostgres) {
		t.Errorf("switching driver should reset dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Addr != ":7000" || !cfg.Seed || cfg.Log.Path != "server.log" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestEnvDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDriver, "postgres")
	t.Setenv(EnvDSN, "postgres://villa:secret@db/villas")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "postgres://villa:secret@db/villas" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
}

func TestEnvSeedInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSeed, "maybe")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid seed value")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown database driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "dsn is empty"},
		{"empty addr", func(c *Config) { c.Addr = "" }, "address is empty"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
