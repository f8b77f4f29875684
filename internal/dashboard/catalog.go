package dashboard

import (
	"context"
	"log/slog"
)

// CatalogState is a read-only view of the catalog loader.
type CatalogState struct {
	Phase   Phase
	Symbols []string
	Err     string
}

// CatalogLoader fetches the symbol list once per session:
// idle -> loading -> ready | failed. There is no automatic retry.
type CatalogLoader struct {
	api     API
	log     *slog.Logger
	phase   Phase
	symbols []string
	err     string
}

// NewCatalogLoader creates an idle catalog loader.
func NewCatalogLoader(api API, log *slog.Logger) *CatalogLoader {
	return &CatalogLoader{api: api, log: log}
}

// Load moves idle -> loading and returns the fetch. Later calls return nil.
func (l *CatalogLoader) Load(ctx context.Context) Fetch {
	if l.phase != PhaseIdle {
		return nil
	}
	l.phase = PhaseLoading
	api := l.api
	return func() Event {
		syms, err := guard(func() ([]string, error) { return api.ListSymbols(ctx) })
		return CatalogLoaded{Symbols: syms, Err: err}
	}
}

// Apply records a catalog result. It reports false when no load is pending.
func (l *CatalogLoader) Apply(ev CatalogLoaded) bool {
	if l.phase != PhaseLoading {
		return false
	}
	if ev.Err != nil {
		l.log.Error("error fetching stocks", "error", ev.Err)
		l.phase = PhaseFailed
		l.err = MsgCatalogFailed
		l.symbols = nil
		return true
	}
	l.phase = PhaseReady
	l.symbols = ev.Symbols
	if l.symbols == nil {
		l.symbols = []string{}
	}
	l.log.Info("stocks list loaded", "count", len(l.symbols))
	return true
}

// State returns the current catalog state.
func (l *CatalogLoader) State() CatalogState {
	return CatalogState{Phase: l.phase, Symbols: l.symbols, Err: l.err}
}
