// Package market implements the price API's query logic over a store:
// paging, point lookup by date, and cumulative return over a range.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"stockdash/internal/domain"
	"stockdash/internal/store"
)

// Paging bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	// ErrInvalidParam reports an out-of-range query parameter.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrInvalidRange reports an end date before the start date.
	ErrInvalidRange = errors.New("end_date must be after start_date")
	// ErrInsufficientData reports a range with fewer than two price points.
	ErrInsufficientData = errors.New("Insufficient data points for calculation")
)

// Service answers price queries from a store.
type Service struct {
	store store.PriceReader
	log   *slog.Logger
}

// NewService creates a Service reading from s.
func NewService(s store.PriceReader, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, log: log.With("component", "market")}
}

// Symbols returns every symbol in the store.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	return s.store.ListSymbols(ctx)
}

// Prices returns one page of symbol's series. skip must be >= 0 and limit in
// [1, MaxLimit]. An unknown symbol yields an empty page with total 0.
func (s *Service) Prices(ctx context.Context, symbol string, skip, limit int) (*domain.PriceSeries, error) {
	if skip < 0 {
		return nil, fmt.Errorf("%w: skip must be >= 0", ErrInvalidParam)
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParam, MaxLimit)
	}
	points, total, err := s.store.ReadPrices(ctx, symbol, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("reading prices for %s: %w", symbol, err)
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	s.log.Debug("prices", "symbol", symbol, "skip", skip, "limit", limit, "returned", len(points), "total", total)
	return &domain.PriceSeries{Data: points, Total: total}, nil
}

// PriceAt returns symbol's point on date's calendar day. It returns an error
// wrapping store.ErrNotFound when there is none.
func (s *Service) PriceAt(ctx context.Context, symbol string, date domain.Date) (*domain.PricePoint, error) {
	return s.store.PriceAt(ctx, symbol, date)
}

// CumulativeReturn computes (end-start)/start*100, rounded to two decimals,
// between the first and last points within [start, end].
func (s *Service) CumulativeReturn(ctx context.Context, symbol string, start, end domain.Date) (*domain.ReturnResult, error) {
	if end.Before(start.Time) {
		return nil, ErrInvalidRange
	}
	points, err := s.store.PricesBetween(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading prices for %s: %w", symbol, err)
	}
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}

	first, last := points[0], points[len(points)-1]
	var ret float64
	if first.CloseUSD != 0 {
		ret = round2((last.CloseUSD - first.CloseUSD) / first.CloseUSD * 100)
	}
	return &domain.ReturnResult{
		Name:             symbol,
		StartDate:        start,
		EndDate:          end,
		StartPrice:       first.CloseUSD,
		EndPrice:         last.CloseUSD,
		CumulativeReturn: ret,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
