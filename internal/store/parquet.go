package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/domain"
)

// Compile-time interface check.
var _ PriceStore = (*ParquetStore)(nil)

// ParquetStore implements PriceStore using one Parquet file per symbol:
//
//	<DataDir>/prices/<SYMBOL>.parquet
//
// Every read loads the whole file; it suits snapshot-sized data sets.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// Close is a no-op; files are opened per call.
func (s *ParquetStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// PriceRecord is the Parquet schema for one daily price point.
type PriceRecord struct {
	ID           int64   `parquet:"id"`
	Name         string  `parquet:"name"`
	AsOf         string  `parquet:"asof"` // YYYY-MM-DD
	Volume       int64   `parquet:"volume"`
	CloseUSD     float64 `parquet:"close_usd"`
	SectorLevel1 string  `parquet:"sector_level1"`
	SectorLevel2 string  `parquet:"sector_level2"`
}

func toRecord(p domain.PricePoint) PriceRecord {
	return PriceRecord{
		ID:           p.ID,
		Name:         p.Name,
		AsOf:         p.AsOf.String(),
		Volume:       p.Volume,
		CloseUSD:     p.CloseUSD,
		SectorLevel1: p.SectorLevel1,
		SectorLevel2: p.SectorLevel2,
	}
}

func fromRecord(r PriceRecord) (domain.PricePoint, error) {
	d, err := domain.ParseDate(r.AsOf)
	if err != nil {
		return domain.PricePoint{}, err
	}
	return domain.PricePoint{
		ID:           r.ID,
		Name:         r.Name,
		AsOf:         d,
		Volume:       r.Volume,
		CloseUSD:     r.CloseUSD,
		SectorLevel1: r.SectorLevel1,
		SectorLevel2: r.SectorLevel2,
	}, nil
}

// ---------------------------------------------------------------------------
// PriceWriter implementation
// ---------------------------------------------------------------------------

// WritePrices merges points into the per-symbol files.
func (s *ParquetStore) WritePrices(_ context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	groups := make(map[string][]PriceRecord)
	for _, p := range points {
		groups[p.Name] = append(groups[p.Name], toRecord(p))
	}

	for symbol, records := range groups {
		path := s.pricePath(symbol)

		// Read existing records to merge.
		existing, _ := readParquetFile[PriceRecord](path)
		merged := mergePriceRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s: %w", symbol, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// PriceReader implementation
// ---------------------------------------------------------------------------

// ListSymbols lists every symbol with a price file, sorted.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "prices"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	symbols := []string{}
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".parquet")
		if !ok || e.IsDir() {
			continue
		}
		if sym, err := url.PathUnescape(name); err == nil {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ReadPrices returns one page of symbol's points ordered by date.
func (s *ParquetStore) ReadPrices(ctx context.Context, symbol string, skip, limit int) ([]domain.PricePoint, int, error) {
	all, err := s.readSymbol(symbol)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total || limit < 0 {
		end = total
	}
	return all[skip:end], total, nil
}

// PriceAt returns the point for symbol on date.
func (s *ParquetStore) PriceAt(_ context.Context, symbol string, date domain.Date) (*domain.PricePoint, error) {
	all, err := s.readSymbol(symbol)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].AsOf.Equal(date.Time) {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("price for %s on %s: %w", symbol, date, ErrNotFound)
}

// PricesBetween returns symbol's points within [start, end].
func (s *ParquetStore) PricesBetween(_ context.Context, symbol string, start, end domain.Date) ([]domain.PricePoint, error) {
	all, err := s.readSymbol(symbol)
	if err != nil {
		return nil, err
	}
	out := []domain.PricePoint{}
	for _, p := range all {
		if !p.AsOf.Before(start.Time) && !p.AsOf.After(end.Time) {
			out = append(out, p)
		}
	}
	return out, nil
}

// readSymbol loads every point for symbol. A missing file is an empty series.
func (s *ParquetStore) readSymbol(symbol string) ([]domain.PricePoint, error) {
	path := s.pricePath(symbol)
	records, err := readParquetFile[PriceRecord](path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.PricePoint{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	points := make([]domain.PricePoint, 0, len(records))
	for _, r := range records {
		p, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// ExportParquet writes points to a single Parquet file at path.
func ExportParquet(path string, points []domain.PricePoint) error {
	records := make([]PriceRecord, len(points))
	for i, p := range points {
		records[i] = toRecord(p)
	}
	return writeParquetFile(path, records)
}

// ImportParquet reads every point from a single Parquet file.
func ImportParquet(path string) ([]domain.PricePoint, error) {
	records, err := readParquetFile[PriceRecord](path)
	if err != nil {
		return nil, err
	}
	points := make([]domain.PricePoint, 0, len(records))
	for i, r := range records {
		p, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// pricePath returns the filesystem path for a symbol's Parquet file. The
// symbol is path-escaped so names containing a slash stay in one file.
// Layout: <dataDir>/prices/<SYMBOL>.parquet
func (s *ParquetStore) pricePath(symbol string) string {
	return filepath.Join(s.DataDir, "prices", url.PathEscape(symbol)+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergePriceRecords deduplicates records by asof, preferring incoming records
// over existing ones. Results are sorted by date.
func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	seen := make(map[string]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.AsOf] = r
	}
	for _, r := range incoming {
		seen[r.AsOf] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].AsOf < merged[j].AsOf
	})
	return merged
}
