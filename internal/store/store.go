// Package store persists villas. Two backends are provided: a SQL store for
// SQLite and Postgres, and an embedded bolt key/value store.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/erazemk/magicvilla/internal/db"
	"github.com/erazemk/magicvilla/internal/model"
)

// ErrNotFound is returned by Update and Remove when no villa has the given ID.
var ErrNotFound = errors.New("villa not found")

// Store is the record store the villa service runs against. Lookups return
// (nil, nil) when nothing matches. Every mutating call commits on its own.
type Store interface {
	Insert(ctx context.Context, v *model.Villa) (*model.Villa, error)
	FindByID(ctx context.Context, id int64) (*model.Villa, error)
	// FindByName matches name case-insensitively.
	FindByName(ctx context.Context, name string) (*model.Villa, error)
	List(ctx context.Context) ([]model.Villa, error)
	Update(ctx context.Context, v *model.Villa) error
	Remove(ctx context.Context, id int64) error
	// SetImage stores the image and writes v in the same commit.
	SetImage(ctx context.Context, v *model.Villa, data []byte, mime string) error
	Image(ctx context.Context, id int64) ([]byte, string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Driver names a storage backend.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverBolt     Driver = "bolt"
)

// Open selects and opens a Store for driver, creating the schema if needed.
func Open(ctx context.Context, driver Driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		dialect := db.Dialect(driver)
		if dialect == db.SQLite {
			if err := ensureDir(dsn); err != nil {
				return nil, err
			}
		}
		database, err := db.Open(dialect, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(database, dialect); err != nil {
			database.Close()
			return nil, err
		}
		return NewSQL(database, dialect), nil
	case DriverBolt:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		return OpenBolt(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

// DemoVillas are the two demo villas inserted by Seed.
func DemoVillas(now time.Time) []model.Villa {
	return []model.Villa{
		{
			VillaFields: model.VillaFields{
				Name:         "Villa Real",
				Detail:       "Detalle de la Villa",
				Occupants:    5,
				Rate:         200,
				SquareMeters: 50,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			VillaFields: model.VillaFields{
				Name:         "Premium Vista a la Piscina",
				Detail:       "Detalle de la Villa",
				Occupants:    4,
				Rate:         150,
				SquareMeters: 40,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Seed inserts DemoVillas when the store is empty. It returns the number of
// villas inserted.
func Seed(ctx context.Context, s Store, now time.Time) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking existing villas: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	demo := DemoVillas(now)
	for i := range demo {
		if _, err := s.Insert(ctx, &demo[i]); err != nil {
			return i, fmt.Errorf("seeding villa %q: %w", demo[i].Name, err)
		}
	}
	return len(demo), nil
}
