// Package dashboard coordinates the dashboard's data sources: the symbol
// catalog, the price series for the selected symbol, and the on-demand point
// and range lookups. It holds no goroutines of its own. Every network call is
// handed back to the caller as a Fetch; the caller runs it off the UI loop and
// feeds the resulting Event to Coordinator.Apply on the UI loop.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"stockdash/internal/domain"
)

// User-facing messages. Technical detail goes to the log only.
const (
	MsgCatalogFailed = "Failed to fetch stocks list"
	MsgSeriesFailed  = "Failed to fetch stock data"
	MsgInvalidFormat = "Invalid data format received"
	MsgPointFailed   = "Failed to fetch price for selected date"
	MsgRangeFailed   = "Failed to calculate returns"
)

// Phase is the lifecycle state of a single data source.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// API is the backend surface the dashboard depends on. *stockdash.Client
// satisfies it.
type API interface {
	ListSymbols(ctx context.Context) ([]string, error)
	GetPriceSeries(ctx context.Context, symbol string, skip, limit int) (*domain.PriceSeries, error)
	GetPriceAtDate(ctx context.Context, symbol string, date time.Time) (*domain.PricePoint, error)
	CalculateReturn(ctx context.Context, symbol string, q domain.ReturnQuery) (*domain.ReturnResult, error)
}

// Fetch performs one network call and returns the event describing its
// outcome. It is safe to run on any goroutine.
type Fetch func() Event

// Event is the outcome of a Fetch.
type Event interface {
	isEvent()
}

// CatalogLoaded carries the symbol catalog result.
type CatalogLoaded struct {
	Symbols []string
	Err     error
}

// SeriesLoaded carries a price series result. Symbol and Gen identify the
// request it answers.
type SeriesLoaded struct {
	Symbol string
	Gen    uint64
	Series *domain.PriceSeries
	Err    error
}

// QueryDone carries a point or range lookup result. Seq identifies the
// submission it answers.
type QueryDone[R any] struct {
	Seq    uint64
	Result *R
	Err    error
}

func (CatalogLoaded) isEvent() {}
func (SeriesLoaded) isEvent()  {}
func (QueryDone[R]) isEvent()  {}

// guard runs fn and turns a panic into an error so that a failing fetch always
// ends in a terminal state.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during fetch: %v", r)
		}
	}()
	return fn()
}
