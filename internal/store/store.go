// Package store defines storage for daily price points and the backends that
// implement it: SQLite for serving and Parquet files for snapshots.
package store

import (
	"context"
	"errors"

	"stockdash/internal/domain"
)

// ErrNotFound is returned when no price exists for the requested key.
var ErrNotFound = errors.New("not found")

// PriceReader serves price data to the API.
type PriceReader interface {
	// ListSymbols returns every distinct symbol.
	ListSymbols(ctx context.Context) ([]string, error)

	// ReadPrices returns up to limit points for symbol ordered by date,
	// skipping the first skip, plus the total number of points stored.
	ReadPrices(ctx context.Context, symbol string, skip, limit int) ([]domain.PricePoint, int, error)

	// PriceAt returns the point for symbol on the given calendar date, or
	// ErrNotFound.
	PriceAt(ctx context.Context, symbol string, date domain.Date) (*domain.PricePoint, error)

	// PricesBetween returns the points for symbol within [start, end], ordered
	// by date.
	PricesBetween(ctx context.Context, symbol string, start, end domain.Date) ([]domain.PricePoint, error)
}

// PriceWriter persists price data. Writing a point whose (name, asof) already
// exists replaces it.
type PriceWriter interface {
	WritePrices(ctx context.Context, points []domain.PricePoint) error
}

// PriceStore reads and writes price data.
type PriceStore interface {
	PriceReader
	PriceWriter
	Close() error
}
