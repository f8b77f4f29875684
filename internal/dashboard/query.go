package dashboard

import (
	"log/slog"
)

// QueryState is a read-only view of a query controller.
type QueryState[R any] struct {
	Phase  Phase
	Result *R
	Err    string
}

// Query is an on-demand, user-triggered lookup. Each submission takes a new
// sequence number; only the result of the latest submission is applied.
// While a submission is loading the previous result stays visible.
type Query[R any] struct {
	name   string
	failed string
	log    *slog.Logger

	seq    uint64
	phase  Phase
	result *R
	err    string
}

// NewQuery creates an idle controller. failed is the user message shown when
// a submission fails.
func NewQuery[R any](name, failed string, log *slog.Logger) *Query[R] {
	return &Query[R]{name: name, failed: failed, log: log}
}

// Busy reports whether a submission is in flight.
func (q *Query[R]) Busy() bool { return q.phase == PhaseLoading }

// Submit moves the controller to loading and returns the fetch. run performs
// the lookup.
func (q *Query[R]) Submit(run func() (*R, error)) Fetch {
	q.seq++
	q.phase = PhaseLoading
	q.err = ""
	seq := q.seq
	return func() Event {
		r, err := guard(run)
		return QueryDone[R]{Seq: seq, Result: r, Err: err}
	}
}

// Apply records a result. It reports false when the result answers a
// superseded or reset submission.
func (q *Query[R]) Apply(ev QueryDone[R]) bool {
	if ev.Seq != q.seq || q.phase != PhaseLoading {
		q.log.Debug("discarding stale result", "query", q.name, "seq", ev.Seq, "current", q.seq)
		return false
	}
	if ev.Err != nil || ev.Result == nil {
		q.log.Error("lookup failed", "query", q.name, "error", ev.Err)
		q.phase = PhaseFailed
		q.result = nil
		q.err = q.failed
		return true
	}
	q.phase = PhaseReady
	q.result = ev.Result
	return true
}

// Reset returns the controller to idle and invalidates any in-flight result.
func (q *Query[R]) Reset() {
	q.seq++
	q.phase = PhaseIdle
	q.result = nil
	q.err = ""
}

// State returns the controller's current state.
func (q *Query[R]) State() QueryState[R] {
	return QueryState[R]{Phase: q.phase, Result: q.result, Err: q.err}
}
