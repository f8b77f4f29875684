package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"stockdash/internal/domain"
)

// DefaultPageLimit is the number of points requested for the chart.
const DefaultPageLimit = 100

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPageLimit sets the number of price points requested per series load.
func WithPageLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.limit = n
		}
	}
}

// Snapshot is the complete dashboard state at one instant.
type Snapshot struct {
	Selected string
	Catalog  CatalogState
	Series   SeriesState
	Point    QueryState[domain.PricePoint]
	Range    QueryState[domain.ReturnResult]
}

// Coordinator owns the selection and the four data sources. All methods must
// be called from a single goroutine.
type Coordinator struct {
	api   API
	log   *slog.Logger
	limit int

	ctx    context.Context
	cancel context.CancelFunc

	selected string
	catalog  *CatalogLoader
	series   *SeriesLoader
	point    *Query[domain.PricePoint]
	rng      *Query[domain.ReturnResult]
}

// New creates a coordinator with no selection. Nothing is fetched until Start.
func New(api API, log *slog.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "dashboard")
	c := &Coordinator{api: api, log: log, limit: DefaultPageLimit}
	for _, o := range opts {
		o(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.catalog = NewCatalogLoader(api, log)
	c.series = NewSeriesLoader(api, log, c.limit)
	c.point = NewQuery[domain.PricePoint]("price-at-date", MsgPointFailed, log)
	c.rng = NewQuery[domain.ReturnResult]("returns", MsgRangeFailed, log)
	return c
}

// Start begins the one-time catalog load.
func (c *Coordinator) Start() Fetch {
	return c.catalog.Load(c.ctx)
}

// Selected returns the current selection, "" when none.
func (c *Coordinator) Selected() string { return c.selected }

// Select changes the selection. Selecting the current symbol again is a no-op
// and returns nil. Otherwise the series reloads for the new symbol, both query
// controllers reset, and the series fetch is returned (nil when clearing).
func (c *Coordinator) Select(symbol string) Fetch {
	if symbol == c.selected {
		return nil
	}
	c.log.Debug("selection changed", "from", c.selected, "to", symbol)
	c.selected = symbol
	c.point.Reset()
	c.rng.Reset()
	return c.series.Load(c.ctx, symbol)
}

// LookupsAvailable reports whether the point and range lookups are offered:
// only while the selected symbol's chart has data.
func (c *Coordinator) LookupsAvailable() bool {
	st := c.series.State()
	return c.selected != "" && st.Phase == PhaseReady &&
		st.Series != nil && len(st.Series.Data) > 0
}

// CanSubmitPoint reports whether a point lookup for date would be accepted.
func (c *Coordinator) CanSubmitPoint(date string) bool {
	if !c.LookupsAvailable() || c.point.Busy() {
		return false
	}
	_, err := domain.ParseDate(date)
	return strings.TrimSpace(date) != "" && err == nil
}

// SubmitPoint looks up the selected symbol's price on date (YYYY-MM-DD). It
// returns nil without side effects when the lookup cannot be submitted.
func (c *Coordinator) SubmitPoint(date string) Fetch {
	if !c.CanSubmitPoint(date) {
		return nil
	}
	d, _ := domain.ParseDate(date)
	api, ctx, symbol := c.api, c.ctx, c.selected
	c.log.Debug("submitting price lookup", "symbol", symbol, "date", d.String())
	return c.point.Submit(func() (*domain.PricePoint, error) {
		return api.GetPriceAtDate(ctx, symbol, d.Time)
	})
}

// CanSubmitRange reports whether a range lookup would be accepted.
func (c *Coordinator) CanSubmitRange(start, end string) bool {
	return c.LookupsAvailable() && !c.rng.Busy() &&
		strings.TrimSpace(start) != "" && strings.TrimSpace(end) != ""
}

// SubmitRange asks for the selected symbol's cumulative return between start
// and end. The dates are forwarded without further validation. It returns nil
// without side effects when the lookup cannot be submitted.
func (c *Coordinator) SubmitRange(start, end string) Fetch {
	if !c.CanSubmitRange(start, end) {
		return nil
	}
	q := domain.ReturnQuery{
		Symbol:    c.selected,
		StartDate: strings.TrimSpace(start),
		EndDate:   strings.TrimSpace(end),
	}
	api, ctx := c.api, c.ctx
	c.log.Debug("submitting return calculation", "symbol", q.Symbol, "start", q.StartDate, "end", q.EndDate)
	return c.rng.Submit(func() (*domain.ReturnResult, error) {
		return api.CalculateReturn(ctx, q.Symbol, q)
	})
}

// Apply routes a completed fetch to its data source. It reports whether the
// visible state changed.
func (c *Coordinator) Apply(ev Event) bool {
	switch e := ev.(type) {
	case CatalogLoaded:
		return c.catalog.Apply(e)
	case SeriesLoaded:
		return c.series.Apply(e)
	case QueryDone[domain.PricePoint]:
		return c.point.Apply(e)
	case QueryDone[domain.ReturnResult]:
		return c.rng.Apply(e)
	default:
		c.log.Warn("unknown event", "type", ev)
		return false
	}
}

// Snapshot returns the current state of every data source.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		Selected: c.selected,
		Catalog:  c.catalog.State(),
		Series:   c.series.State(),
		Point:    c.point.State(),
		Range:    c.rng.State(),
	}
}

// View derives the render description of the current state.
func (c *Coordinator) View() View {
	return Derive(c.Snapshot())
}

// Close cancels every in-flight request.
func (c *Coordinator) Close() {
	c.series.Stop()
	c.cancel()
}
