package dashboard

import (
	"context"
	"errors"
	"log/slog"

	"stockdash/internal/domain"
)

// SeriesState is a read-only view of the series loader.
type SeriesState struct {
	Phase  Phase
	Symbol string
	Series *domain.PriceSeries
	Err    string
}

// SeriesLoader fetches the price series for the current selection. Each load
// bumps a generation counter and cancels the request it supersedes; a result
// is applied only when its (symbol, generation) still matches.
type SeriesLoader struct {
	api   API
	log   *slog.Logger
	limit int

	symbol string
	gen    uint64
	phase  Phase
	series *domain.PriceSeries
	err    string
	cancel context.CancelFunc
}

// NewSeriesLoader creates an idle loader requesting pages of limit points.
func NewSeriesLoader(api API, log *slog.Logger, limit int) *SeriesLoader {
	return &SeriesLoader{api: api, log: log, limit: limit}
}

// Load switches the loader to symbol. An empty symbol clears the series and
// returns nil. Otherwise the loader enters loading for symbol, dropping any
// previous series or error, and returns the fetch.
func (l *SeriesLoader) Load(ctx context.Context, symbol string) Fetch {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.symbol = symbol
	l.series = nil
	l.err = ""

	if symbol == "" {
		l.phase = PhaseIdle
		return nil
	}
	l.phase = PhaseLoading

	reqCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	api, gen, limit := l.api, l.gen, l.limit
	return func() Event {
		defer cancel()
		s, err := guard(func() (*domain.PriceSeries, error) {
			return api.GetPriceSeries(reqCtx, symbol, 0, limit)
		})
		return SeriesLoaded{Symbol: symbol, Gen: gen, Series: s, Err: err}
	}
}

// Apply records a series result. Results from superseded loads are dropped and
// Apply reports false.
func (l *SeriesLoader) Apply(ev SeriesLoaded) bool {
	if ev.Gen != l.gen || ev.Symbol != l.symbol || l.phase != PhaseLoading {
		l.log.Debug("discarding stale price series", "symbol", ev.Symbol, "gen", ev.Gen, "current", l.symbol)
		return false
	}
	l.cancel = nil

	switch {
	case ev.Err != nil && errors.Is(ev.Err, domain.ErrInvalidFormat):
		l.log.Error("invalid stock price data format", "symbol", ev.Symbol, "error", ev.Err)
		l.fail(MsgInvalidFormat)
	case ev.Err != nil:
		l.log.Error("error fetching stock data", "symbol", ev.Symbol, "error", ev.Err)
		l.fail(MsgSeriesFailed)
	case ev.Series == nil || ev.Series.Data == nil:
		l.log.Error("invalid stock price data format", "symbol", ev.Symbol)
		l.fail(MsgInvalidFormat)
	default:
		l.phase = PhaseReady
		l.series = ev.Series
		l.log.Debug("price series loaded", "symbol", ev.Symbol, "points", len(ev.Series.Data), "total", ev.Series.Total)
	}
	return true
}

func (l *SeriesLoader) fail(msg string) {
	l.phase = PhaseFailed
	l.series = nil
	l.err = msg
}

// Stop cancels any in-flight request.
func (l *SeriesLoader) Stop() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// State returns the current series state.
func (l *SeriesLoader) State() SeriesState {
	return SeriesState{Phase: l.phase, Symbol: l.symbol, Series: l.series, Err: l.err}
}
