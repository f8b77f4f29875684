package dashboard

import (
	"stockdash/internal/domain"
)

// CatalogMode selects what the catalog region shows.
type CatalogMode int

const (
	CatalogLoading CatalogMode = iota
	CatalogError
	CatalogReady
)

// ChartMode selects what the chart region shows.
type ChartMode int

const (
	ChartNoSelection ChartMode = iota
	ChartLoading
	ChartError
	ChartEmpty
	ChartReady
)

func (m ChartMode) String() string {
	switch m {
	case ChartNoSelection:
		return "no-selection"
	case ChartLoading:
		return "loading"
	case ChartError:
		return "error"
	case ChartEmpty:
		return "empty"
	case ChartReady:
		return "ready"
	}
	return "unknown"
}

// QueryView describes one query panel.
type QueryView[R any] struct {
	Loading bool
	Result  *R
	Err     string
}

// View is a render description derived from a Snapshot. It holds everything a
// front end needs and nothing it must compute.
type View struct {
	CatalogMode CatalogMode
	Symbols     []string
	CatalogErr  string

	Selected string

	ChartMode ChartMode
	ChartErr  string
	Points    []domain.PricePoint
	Stats     ChartStats

	Point QueryView[domain.PricePoint]
	Range QueryView[domain.ReturnResult]
}

// Derive maps a snapshot to its view. It is a pure function.
func Derive(s Snapshot) View {
	v := View{Selected: s.Selected}

	switch s.Catalog.Phase {
	case PhaseFailed:
		v.CatalogMode = CatalogError
		v.CatalogErr = s.Catalog.Err
	case PhaseReady:
		v.CatalogMode = CatalogReady
		v.Symbols = s.Catalog.Symbols
	default:
		v.CatalogMode = CatalogLoading
	}

	switch {
	case s.Selected == "":
		v.ChartMode = ChartNoSelection
	case s.Series.Phase == PhaseFailed:
		v.ChartMode = ChartError
		v.ChartErr = s.Series.Err
	case s.Series.Phase == PhaseReady && s.Series.Series != nil && len(s.Series.Series.Data) > 0:
		v.ChartMode = ChartReady
		v.Points = s.Series.Series.Data
		v.Stats = ComputeChart(v.Points)
	case s.Series.Phase == PhaseReady:
		v.ChartMode = ChartEmpty
	default:
		v.ChartMode = ChartLoading
	}

	v.Point = queryView(s.Point)
	v.Range = queryView(s.Range)
	return v
}

func queryView[R any](s QueryState[R]) QueryView[R] {
	return QueryView[R]{
		Loading: s.Phase == PhaseLoading,
		Result:  s.Result,
		Err:     s.Err,
	}
}
