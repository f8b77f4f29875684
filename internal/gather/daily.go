package gather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockdash/internal/config"
	"stockdash/internal/domain"
	"stockdash/internal/store"
	"stockdash/internal/util"
)

var _ Gatherer = (*DailyImporter)(nil)

// BarSource fetches bars for several symbols in one request.
// *marketdata.Client satisfies it.
type BarSource interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// PriceStore is the part of the store the importer reads and writes.
type PriceStore interface {
	store.PriceReader
	store.PriceWriter
}

// NewAlpacaClient builds a market-data client from the configured
// credentials.
func NewAlpacaClient(cfg config.Alpaca) *marketdata.Client {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return marketdata.NewClient(opts)
}

// DailyOptions configures a DailyImporter.
type DailyOptions struct {
	// Symbols to import. When empty the symbols already in the store are
	// refreshed.
	Symbols []string
	// StartDate (YYYY-MM-DD) is where a symbol with no stored prices begins.
	StartDate       string
	Feed            string
	BatchSize       int
	MaxWorkers      int
	RateLimitPerMin int
	MaxAttempts     int
	// ProgressDir holds the completion marker. Empty disables it.
	ProgressDir string
}

// DailyImporter copies daily closing prices from a BarSource into the store.
// Each symbol resumes the day after its latest stored date, so repeated runs
// only fetch what is missing.
type DailyImporter struct {
	src        BarSource
	store      PriceStore
	opts       DailyOptions
	start      time.Time
	limiter    *util.RateLimiter
	loc        *time.Location
	now        func() time.Time
	retryDelay time.Duration
	log        *slog.Logger
}

// NewDailyImporter validates opts and returns an importer. Zero values in
// opts fall back to the defaults used by config.Default.
func NewDailyImporter(src BarSource, s PriceStore, opts DailyOptions, log *slog.Logger) (*DailyImporter, error) {
	start, err := time.Parse(domain.DateLayout, opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", opts.StartDate, err)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = 200
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("loading ET timezone: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &DailyImporter{
		src:        src,
		store:      s,
		opts:       opts,
		start:      start,
		limiter:    util.NewBurstRateLimiter(opts.RateLimitPerMin, opts.MaxWorkers),
		loc:        loc,
		now:        time.Now,
		retryDelay: 2 * time.Second,
		log:        log.With("gatherer", "daily"),
	}, nil
}

// Name returns the gatherer identifier.
func (g *DailyImporter) Name() string { return "daily" }

// batch is a group of symbols fetched together. Each symbol keeps its own
// resume date; the request covers the earliest of them.
type batch struct {
	symbols []string
	from    map[string]time.Time
	rng     DateRange
}

// Run imports every missing session up to the last finished one. A failed
// batch is logged and the run continues; the run then returns an error and
// is not marked complete.
func (g *DailyImporter) Run(ctx context.Context) error {
	end := util.LastFinishedSession(g.now(), g.loc)
	endStr := end.Format(domain.DateLayout)

	var tracker *progress
	if g.opts.ProgressDir != "" {
		var err error
		if tracker, err = newProgress(g.opts.ProgressDir); err != nil {
			return fmt.Errorf("creating progress tracker: %w", err)
		}
		if tracker.IsCompleted(endStr) {
			g.log.Info("already completed", "endDate", endStr)
			return nil
		}
	}

	symbols, err := g.symbols(ctx)
	if err != nil {
		return err
	}
	batches, err := g.plan(ctx, symbols, end)
	if err != nil {
		return err
	}

	g.log.Info("starting daily import", "endDate", endStr, "symbols", len(symbols), "batches", len(batches))
	if len(batches) == 0 {
		g.log.Info("all symbols up to date")
		return tracker.MarkCompleted(endStr)
	}

	batchCh := make(chan int, len(batches))
	for i := range batches {
		batchCh <- i
	}
	close(batchCh)

	var (
		wg       sync.WaitGroup
		written  atomic.Int64
		failed   atomic.Int64
		runStart = time.Now()
	)

	workers := min(g.opts.MaxWorkers, len(batches))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range batchCh {
				if ctx.Err() != nil {
					return
				}
				b := batches[idx]
				n, err := g.importBatch(ctx, b)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					failed.Add(1)
					g.log.Error("batch failed",
						"batch", fmt.Sprintf("%d/%d", idx+1, len(batches)),
						"range", b.rng.String(),
						"err", err,
					)
					continue
				}
				written.Add(int64(n))
				g.log.Info("batch done",
					"batch", fmt.Sprintf("%d/%d", idx+1, len(batches)),
					"points", n,
					"elapsed", time.Since(runStart).Round(time.Second),
				)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d batches failed", n, len(batches))
	}

	g.log.Info("complete", "points", written.Load(), "elapsed", time.Since(runStart).Round(time.Second))
	return tracker.MarkCompleted(endStr)
}

// symbols returns the configured symbols upper-cased and deduplicated, or
// the stored ones when none are configured.
func (g *DailyImporter) symbols(ctx context.Context) ([]string, error) {
	if len(g.opts.Symbols) == 0 {
		syms, err := g.store.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing stored symbols: %w", err)
		}
		return syms, nil
	}
	seen := make(map[string]struct{}, len(g.opts.Symbols))
	out := make([]string, 0, len(g.opts.Symbols))
	for _, s := range g.opts.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// plan works out each symbol's resume date and groups the symbols that still
// need data into batches.
func (g *DailyImporter) plan(ctx context.Context, symbols []string, end time.Time) ([]batch, error) {
	var batches []batch
	cur := batch{from: make(map[string]time.Time)}
	flush := func() {
		if len(cur.symbols) == 0 {
			return
		}
		batches = append(batches, cur)
		cur = batch{from: make(map[string]time.Time)}
	}

	for _, sym := range symbols {
		from, err := g.resumeDate(ctx, sym)
		if err != nil {
			return nil, err
		}
		if from.After(end) {
			continue
		}
		if len(cur.symbols) == 0 || from.Before(cur.rng.Start) {
			cur.rng.Start = from
		}
		cur.rng.End = end
		cur.symbols = append(cur.symbols, sym)
		cur.from[sym] = from
		if len(cur.symbols) == g.opts.BatchSize {
			flush()
		}
	}
	flush()
	return batches, nil
}

// resumeDate is the day after the symbol's latest stored point, or the
// configured start date.
func (g *DailyImporter) resumeDate(ctx context.Context, symbol string) (time.Time, error) {
	_, total, err := g.store.ReadPrices(ctx, symbol, 0, 1)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading %s: %w", symbol, err)
	}
	if total == 0 {
		return g.start, nil
	}
	last, _, err := g.store.ReadPrices(ctx, symbol, total-1, 1)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading latest %s: %w", symbol, err)
	}
	if len(last) == 0 {
		return g.start, nil
	}
	next := last[0].AsOf.AddDate(0, 0, 1)
	if next.Before(g.start) {
		return g.start, nil
	}
	return next, nil
}

// importBatch fetches one batch under the rate limit, retrying transient
// failures, and writes the resulting points.
func (g *DailyImporter) importBatch(ctx context.Context, b batch) (int, error) {
	var bars map[string][]marketdata.Bar
	err := util.Retry(ctx, g.opts.MaxAttempts, g.retryDelay, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		bars, err = g.fetch(b)
		return err
	})
	if err != nil {
		return 0, err
	}

	points := toPricePoints(bars, b.from)
	for _, sym := range b.symbols {
		if len(bars[sym]) == 0 {
			g.log.Warn("no bars returned", "symbol", sym, "range", b.rng.String())
		}
	}
	if len(points) == 0 {
		return 0, nil
	}
	if err := g.store.WritePrices(ctx, points); err != nil {
		return 0, fmt.Errorf("writing prices: %w", err)
	}
	return len(points), nil
}

func (g *DailyImporter) fetch(b batch) (map[string][]marketdata.Bar, error) {
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     b.rng.Start,
		End:       b.rng.End.AddDate(0, 0, 1),
	}
	if g.opts.Feed != "" {
		req.Feed = marketdata.Feed(g.opts.Feed)
	}
	res, err := g.src.GetMultiBars(b.symbols, req)
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}
	if res == nil {
		return nil, errors.New("GetMultiBars: empty response")
	}
	return res, nil
}

// toPricePoints converts bars to points, dropping any bar dated before its
// symbol's resume date so already stored rows are left untouched.
func toPricePoints(bars map[string][]marketdata.Bar, from map[string]time.Time) []domain.PricePoint {
	var points []domain.PricePoint
	for symbol, list := range bars {
		name := strings.ToUpper(symbol)
		start, ok := from[name]
		for _, ab := range list {
			d := domain.NewDate(ab.Timestamp)
			if ok && d.Before(start) {
				continue
			}
			points = append(points, domain.PricePoint{
				Name:     name,
				AsOf:     d,
				Volume:   int64(ab.Volume),
				CloseUSD: ab.Close,
			})
		}
	}
	return points
}
