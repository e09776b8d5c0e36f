package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/magicvilla/internal/db"
	"github.com/erazemk/magicvilla/internal/model"
)

// SQL is a Store backed by database/sql (SQLite or Postgres).
type SQL struct {
	db      *sql.DB
	dialect db.Dialect
}

var _ Store = (*SQL)(nil)

// NewSQL wraps an open database whose schema has been ensured.
func NewSQL(database *sql.DB, dialect db.Dialect) *SQL {
	return &SQL{db: database, dialect: dialect}
}

const villaColumns = `id, name, detail, image_url, occupants, rate, square_meters, amenity, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVilla(row rowScanner, v *model.Villa) error {
	return row.Scan(&v.ID, &v.Name, &v.Detail, &v.ImageURL, &v.Occupants, &v.Rate,
		&v.SquareMeters, &v.Amenity, &v.CreatedAt, &v.UpdatedAt)
}

// Insert creates a villa and returns it with its assigned ID.
func (s *SQL) Insert(ctx context.Context, v *model.Villa) (*model.Villa, error) {
	created := *v
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`INSERT INTO villas (name, name_key, detail, image_url, occupants, rate, square_meters, amenity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		v.Name, model.NameKey(v.Name), v.Detail, v.ImageURL, v.Occupants, v.Rate, v.SquareMeters, v.Amenity, v.CreatedAt, v.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("creating villa: %w", err)
	}
	return &created, nil
}

// FindByID returns a villa by ID.
func (s *SQL) FindByID(ctx context.Context, id int64) (*model.Villa, error) {
	v := &model.Villa{}
	err := scanVilla(s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT `+villaColumns+` FROM villas WHERE id = ?`), id), v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting villa: %w", err)
	}
	return v, nil
}

// FindByName returns the first villa whose name equals name, ignoring case.
// Names are folded in Go because SQL lower() only folds ASCII in SQLite.
func (s *SQL) FindByName(ctx context.Context, name string) (*model.Villa, error) {
	v := &model.Villa{}
	err := scanVilla(s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT `+villaColumns+` FROM villas WHERE name_key = ? ORDER BY id LIMIT 1`), model.NameKey(name)), v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding villa by name: %w", err)
	}
	return v, nil
}

// List returns all villas ordered by ID.
func (s *SQL) List(ctx context.Context) ([]model.Villa, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+villaColumns+` FROM villas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing villas: %w", err)
	}
	defer rows.Close()

	var villas []model.Villa
	for rows.Next() {
		var v model.Villa
		if err := scanVilla(rows, &v); err != nil {
			return nil, fmt.Errorf("scanning villa: %w", err)
		}
		villas = append(villas, v)
	}
	return villas, rows.Err()
}

// Update overwrites every descriptive field and updated_at. created_at is
// never changed.
func (s *SQL) Update(ctx context.Context, v *model.Villa) error {
	return updateVilla(ctx, s.db, s.dialect, v)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateVilla(ctx context.Context, ex execer, dialect db.Dialect, v *model.Villa) error {
	result, err := ex.ExecContext(ctx, dialect.Rebind(
		`UPDATE villas SET name = ?, name_key = ?, detail = ?, image_url = ?, occupants = ?, rate = ?,
		        square_meters = ?, amenity = ?, updated_at = ?
		 WHERE id = ?`),
		v.Name, model.NameKey(v.Name), v.Detail, v.ImageURL, v.Occupants, v.Rate, v.SquareMeters, v.Amenity, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating villa: %w", err)
	}
	return expectOneRow(result)
}

// Remove deletes a villa and its image.
func (s *SQL) Remove(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM villas WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting villa: %w", err)
	}
	return expectOneRow(result)
}

// SetImage stores a villa's image and updates the villa row in one transaction.
func (s *SQL) SetImage(ctx context.Context, v *model.Villa, data []byte, mime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateVilla(ctx, tx, s.dialect, v); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO villa_images (villa_id, data, mime) VALUES (?, ?, ?)
		 ON CONFLICT (villa_id) DO UPDATE SET data = excluded.data, mime = excluded.mime`),
		v.ID, data, mime,
	)
	if err != nil {
		return fmt.Errorf("setting villa image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing villa image: %w", err)
	}
	return nil
}

// Image returns a villa's image data and MIME type, or nil data if none.
func (s *SQL) Image(ctx context.Context, id int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT data, mime FROM villa_images WHERE villa_id = ?`), id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting villa image: %w", err)
	}
	return data, mime, nil
}

// Ping checks the database connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
