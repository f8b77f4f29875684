package gather

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockdash/internal/domain"
	"stockdash/internal/store"
	"stockdash/internal/util"
)

type fakeBars struct {
	mu    sync.Mutex
	bars  map[string][]marketdata.Bar
	calls []marketdata.GetBarsRequest
	fail  int
}

func (f *fakeBars) GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("503 service unavailable")
	}
	out := make(map[string][]marketdata.Bar)
	for _, sym := range symbols {
		for _, b := range f.bars[sym] {
			if b.Timestamp.Before(req.Start) || !b.Timestamp.Before(req.End) {
				continue
			}
			out[sym] = append(out[sym], b)
		}
	}
	return out, nil
}

func (f *fakeBars) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// bar returns a daily bar stamped the way Alpaca stamps them: midnight New
// York time.
func bar(date string, close float64, volume uint64) marketdata.Bar {
	d, _ := time.Parse(domain.DateLayout, date)
	return marketdata.Bar{Timestamp: d.Add(5 * time.Hour), Close: close, Volume: volume}
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "prices.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestImporter(t *testing.T, src BarSource, s PriceStore, opts DailyOptions) *DailyImporter {
	t.Helper()
	if opts.StartDate == "" {
		opts.StartDate = "2024-01-02"
	}
	opts.RateLimitPerMin = 60000
	g, err := NewDailyImporter(src, s, opts, util.Discard())
	if err != nil {
		t.Fatalf("NewDailyImporter: %v", err)
	}
	// Friday 2024-01-05 17:00 in New York, after the close.
	g.now = func() time.Time { return time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC) }
	g.retryDelay = time.Millisecond
	return g
}

func sampleBars() map[string][]marketdata.Bar {
	return map[string][]marketdata.Bar{
		"AAPL": {
			bar("2024-01-01", 180, 100),
			bar("2024-01-02", 185.5, 1200),
			bar("2024-01-03", 184, 1100),
			bar("2024-01-04", 182, 900),
			bar("2024-01-05", 181, 800),
		},
		"MSFT": {
			bar("2024-01-02", 370, 500),
			bar("2024-01-03", 372, 600),
		},
	}
}

func TestDailyImporterFreshImport(t *testing.T) {
	src := &fakeBars{bars: sampleBars()}
	s := newTestStore(t)
	g := newTestImporter(t, src, s, DailyOptions{Symbols: []string{"aapl", "AAPL", " msft "}})

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx := context.Background()
	aapl, total, err := s.ReadPrices(ctx, "AAPL", 0, 10)
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}
	if total != 4 {
		t.Fatalf("AAPL total = %d, want 4", total)
	}
	if got := aapl[0].AsOf.String(); got != "2024-01-02" {
		t.Errorf("first AAPL date = %s, want 2024-01-02", got)
	}
	if aapl[0].CloseUSD != 185.5 || aapl[0].Volume != 1200 {
		t.Errorf("first AAPL point = %+v", aapl[0])
	}
	if _, total, _ := s.ReadPrices(ctx, "MSFT", 0, 10); total != 2 {
		t.Errorf("MSFT total = %d, want 2", total)
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("GetMultiBars calls = %d, want 1", n)
	}
}

func TestDailyImporterResumesAfterLatestStored(t *testing.T) {
	src := &fakeBars{bars: sampleBars()}
	s := newTestStore(t)
	ctx := context.Background()

	existing, _ := domain.ParseDate("2024-01-03")
	if err := s.WritePrices(ctx, []domain.PricePoint{{
		Name: "AAPL", AsOf: existing, CloseUSD: 184, Volume: 1100, SectorLevel1: "Technology",
	}}); err != nil {
		t.Fatalf("WritePrices: %v", err)
	}

	g := newTestImporter(t, src, s, DailyOptions{Symbols: []string{"AAPL"}})
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(src.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(src.calls))
	}
	if got := src.calls[0].Start.Format(domain.DateLayout); got != "2024-01-04" {
		t.Errorf("request start = %s, want 2024-01-04", got)
	}

	p, err := s.PriceAt(ctx, "AAPL", existing)
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if p.SectorLevel1 != "Technology" {
		t.Errorf("existing row was overwritten: %+v", p)
	}
	if _, total, _ := s.ReadPrices(ctx, "AAPL", 0, 10); total != 3 {
		t.Errorf("AAPL total = %d, want 3", total)
	}
}

func TestDailyImporterRefreshesStoredSymbols(t *testing.T) {
	src := &fakeBars{bars: sampleBars()}
	s := newTestStore(t)
	ctx := context.Background()

	d, _ := domain.ParseDate("2024-01-02")
	if err := s.WritePrices(ctx, []domain.PricePoint{{Name: "MSFT", AsOf: d, CloseUSD: 370}}); err != nil {
		t.Fatalf("WritePrices: %v", err)
	}

	g := newTestImporter(t, src, s, DailyOptions{})
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, total, _ := s.ReadPrices(ctx, "MSFT", 0, 10); total != 2 {
		t.Errorf("MSFT total = %d, want 2", total)
	}
	if syms, _ := s.ListSymbols(ctx); len(syms) != 1 {
		t.Errorf("symbols = %v, want only MSFT", syms)
	}
}

func TestDailyImporterNothingToDo(t *testing.T) {
	src := &fakeBars{}
	g := newTestImporter(t, src, newTestStore(t), DailyOptions{})
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := src.callCount(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestDailyImporterProgressMarker(t *testing.T) {
	src := &fakeBars{bars: sampleBars()}
	dir := filepath.Join(t.TempDir(), "progress")
	g := newTestImporter(t, src, newTestStore(t), DailyOptions{Symbols: []string{"MSFT"}, ProgressDir: dir})

	for i := 0; i < 2; i++ {
		if err := g.Run(context.Background()); err != nil {
			t.Fatalf("Run #%d: %v", i+1, err)
		}
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("calls = %d, want 1 (second run should be skipped)", n)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".last-completed"))
	if err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	if string(data) != "2024-01-05" {
		t.Errorf("marker = %q, want 2024-01-05", data)
	}
}

func TestDailyImporterRetries(t *testing.T) {
	src := &fakeBars{bars: sampleBars(), fail: 1}
	s := newTestStore(t)
	g := newTestImporter(t, src, s, DailyOptions{Symbols: []string{"MSFT"}, MaxAttempts: 2})

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := src.callCount(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
	if _, total, _ := s.ReadPrices(context.Background(), "MSFT", 0, 10); total != 2 {
		t.Errorf("MSFT total = %d, want 2", total)
	}
}

func TestDailyImporterFailedBatchNotMarked(t *testing.T) {
	src := &fakeBars{bars: sampleBars(), fail: 10}
	dir := t.TempDir()
	g := newTestImporter(t, src, newTestStore(t), DailyOptions{
		Symbols:     []string{"AAPL", "MSFT"},
		BatchSize:   1,
		MaxAttempts: 2,
		ProgressDir: dir,
	})

	if err := g.Run(context.Background()); err == nil {
		t.Fatal("expected error when every batch fails")
	}
	if _, err := os.Stat(filepath.Join(dir, ".last-completed")); !os.IsNotExist(err) {
		t.Errorf("marker written after failed run: %v", err)
	}
}

func TestNewDailyImporterBadStartDate(t *testing.T) {
	if _, err := NewDailyImporter(&fakeBars{}, newTestStore(t), DailyOptions{StartDate: "01/02/2024"}, nil); err == nil {
		t.Fatal("expected error for malformed start date")
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: start.AddDate(0, 0, 3)}
	if r.Empty() {
		t.Error("range should not be empty")
	}
	if got := r.String(); got != "2024-01-02..2024-01-05" {
		t.Errorf("String() = %q", got)
	}
	if !(DateRange{Start: r.End, End: r.Start}).Empty() {
		t.Error("reversed range should be empty")
	}
}

type countingGatherer struct {
	runs int
	err  error
}

func (c *countingGatherer) Name() string { return "counting" }

func (c *countingGatherer) Run(context.Context) error {
	c.runs++
	return c.err
}

func TestSchedulerRunNowAndAdd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx, nil, util.Discard())

	g := &countingGatherer{}
	if err := s.Add("not a schedule", g); err == nil {
		t.Error("expected error for malformed schedule")
	}
	if err := s.Add("0 30 20 * * MON-FRI", g); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.RunNow(g)
	g.err = errors.New("boom")
	s.RunNow(g)
	if g.runs != 2 {
		t.Errorf("runs = %d, want 2", g.runs)
	}

	cancel()
	s.RunNow(g)
	if g.runs != 2 {
		t.Errorf("run after cancel: runs = %d, want 2", g.runs)
	}

	s.Start()
	s.Stop()
}
