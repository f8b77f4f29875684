package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"stockdash/internal/domain"
)

// Open returns the PriceStore selected by backend: "sqlite" (the default)
// opens sqlitePath, "parquet" roots a ParquetStore at dataDir.
func Open(backend, sqlitePath, dataDir string) (PriceStore, error) {
	switch strings.ToLower(backend) {
	case "", "sqlite":
		return NewSQLiteStore(sqlitePath)
	case "parquet":
		return NewParquetStore(dataDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// ReadSource loads a price file by extension: .csv or .parquet.
func ReadSource(path string, log *slog.Logger) ([]domain.PricePoint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSVFile(path, log)
	case ".parquet":
		return ImportParquet(path)
	default:
		return nil, fmt.Errorf("unsupported source file %q", path)
	}
}

// Import reads the price file at path and writes it into w. It returns the
// number of points written.
func Import(ctx context.Context, w PriceWriter, path string, log *slog.Logger) (int, error) {
	points, err := ReadSource(path, log)
	if err != nil {
		return 0, err
	}
	if err := w.WritePrices(ctx, points); err != nil {
		return 0, fmt.Errorf("importing %s: %w", path, err)
	}
	return len(points), nil
}
