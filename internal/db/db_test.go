package db

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		query   string
		want    string
	}{
		{SQLite, "SELECT * FROM villas WHERE id = ?", "SELECT * FROM villas WHERE id = ?"},
		{Postgres, "SELECT * FROM villas WHERE id = ?", "SELECT * FROM villas WHERE id = $1"},
		{Postgres, "UPDATE villas SET name = ?, rate = ? WHERE id = ?", "UPDATE villas SET name = $1, rate = $2 WHERE id = $3"},
		{Postgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		if got := tt.dialect.Rebind(tt.query); got != tt.want {
			t.Errorf("%s.Rebind(%q) = %q, want %q", tt.dialect, tt.query, got, tt.want)
		}
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db := NewTestDB(t)

	if err := EnsureSchema(db, SQLite); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM villas`).Scan(&count); err != nil {
		t.Fatalf("querying villas: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty villas table, got %d rows", count)
	}
}

func TestOpenUnknownDialect(t *testing.T) {
	if _, err := Open(Dialect("oracle"), "x"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}
