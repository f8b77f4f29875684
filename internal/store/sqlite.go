package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"stockdash/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ PriceStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS prices (
	id            INTEGER PRIMARY KEY,
	name          TEXT    NOT NULL,
	asof          TEXT    NOT NULL,
	volume        INTEGER NOT NULL,
	close_usd     REAL    NOT NULL,
	sector_level1 TEXT    NOT NULL DEFAULT '',
	sector_level2 TEXT    NOT NULL DEFAULT '',
	UNIQUE (name, asof)
);
CREATE INDEX IF NOT EXISTS idx_prices_name_asof ON prices (name, asof);
`

// SQLiteStore implements PriceStore backed by a SQLite database. Dates are
// stored as YYYY-MM-DD text so lexical order is date order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases coherent and serialises
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WritePrices upserts points in a single transaction. A zero ID lets the
// database assign one.
func (s *SQLiteStore) WritePrices(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (id, name, asof, volume, close_usd, sector_level1, sector_level2)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, asof) DO UPDATE SET
			volume = excluded.volume,
			close_usd = excluded.close_usd,
			sector_level1 = excluded.sector_level1,
			sector_level2 = excluded.sector_level2`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.AsOf.String(), p.Volume, p.CloseUSD, p.SectorLevel1, p.SectorLevel2); err != nil {
			return fmt.Errorf("writing %s %s: %w", p.Name, p.AsOf, err)
		}
	}
	return tx.Commit()
}

// ListSymbols returns distinct symbols in the order they were first stored.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM prices GROUP BY name ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		symbols = append(symbols, name)
	}
	return symbols, rows.Err()
}

// ReadPrices returns one page of symbol's points ordered by date.
func (s *SQLiteStore) ReadPrices(ctx context.Context, symbol string, skip, limit int) ([]domain.PricePoint, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prices WHERE name = ?`, symbol).Scan(&total); err != nil {
		return nil, 0, err
	}
	points, err := s.query(ctx, `
		SELECT id, name, asof, volume, close_usd, sector_level1, sector_level2
		FROM prices WHERE name = ? ORDER BY asof LIMIT ? OFFSET ?`, symbol, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	return points, total, nil
}

// PriceAt returns the point for symbol on date.
func (s *SQLiteStore) PriceAt(ctx context.Context, symbol string, date domain.Date) (*domain.PricePoint, error) {
	points, err := s.query(ctx, `
		SELECT id, name, asof, volume, close_usd, sector_level1, sector_level2
		FROM prices WHERE name = ? AND asof = ? LIMIT 1`, symbol, date.String())
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("price for %s on %s: %w", symbol, date, ErrNotFound)
	}
	return &points[0], nil
}

// PricesBetween returns symbol's points within [start, end].
func (s *SQLiteStore) PricesBetween(ctx context.Context, symbol string, start, end domain.Date) ([]domain.PricePoint, error) {
	return s.query(ctx, `
		SELECT id, name, asof, volume, close_usd, sector_level1, sector_level2
		FROM prices WHERE name = ? AND asof >= ? AND asof <= ? ORDER BY asof`,
		symbol, start.String(), end.String())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var (
			p    domain.PricePoint
			asof string
		)
		if err := rows.Scan(&p.ID, &p.Name, &asof, &p.Volume, &p.CloseUSD, &p.SectorLevel1, &p.SectorLevel2); err != nil {
			return nil, err
		}
		d, err := domain.ParseDate(asof)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", p.ID, err)
		}
		p.AsOf = d
		points = append(points, p)
	}
	return points, rows.Err()
}
