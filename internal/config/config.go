// Package config loads server settings from an optional YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/magicvilla/internal/store"
)

// Environment variables that override file values.
const (
	EnvDriver = "MAGICVILLA_DB_DRIVER"
	EnvDSN    = "MAGICVILLA_DB_DSN"
	EnvAddr   = "MAGICVILLA_ADDR"
	EnvLog    = "MAGICVILLA_LOG"
	EnvSeed   = "MAGICVILLA_SEED"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds everything the server needs to start.
type Config struct {
	Addr     string   `yaml:"addr"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	// Seed inserts the demo villas when the store is empty.
	Seed bool `yaml:"seed"`
}

// Database selects the store backend.
type Database struct {
	Driver store.Driver `yaml:"driver"`
	DSN    string       `yaml:"dsn"`
}

// Log controls the server logger.
type Log struct {
	// Path, if set, receives a copy of every log line.
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr: ":8080",
		Database: Database{
			Driver: store.DriverSQLite,
			DSN:    DefaultDSN(store.DriverSQLite),
		},
		Log: Log{Format: FormatText},
	}
}

// DefaultDSN is the data source used for driver when none is configured.
func DefaultDSN(driver store.Driver) string {
	switch driver {
	case store.DriverPostgres:
		return "postgres://localhost/magicvilla?sslmode=disable"
	case store.DriverBolt:
		return "magicvilla.bolt"
	default:
		return "magicvilla.sqlite3"
	}
}

// Load starts from Default, applies the YAML file at path (if path is not
// empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	driver := c.Database.Driver
	dsn := c.Database.DSN
	c.Database.DSN = ""

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	// A file that switches driver without naming a DSN gets that driver's default.
	if c.Database.DSN == "" {
		if c.Database.Driver == driver {
			c.Database.DSN = dsn
		} else {
			c.Database.DSN = DefaultDSN(c.Database.Driver)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDriver); ok && v != "" {
		c.Database.Driver = store.Driver(strings.ToLower(v))
		if dsn, ok := lookup(EnvDSN); !ok || dsn == "" {
			c.Database.DSN = DefaultDSN(c.Database.Driver)
		}
	}
	if v, ok := lookup(EnvDSN); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup(EnvLog); ok {
		c.Log.Path = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres, store.DriverBolt:
	default:
		return fmt.Errorf("unknown database driver %q (want sqlite, postgres or bolt)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if c.Addr == "" {
		return errors.New("listen address is empty")
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}
