package dashboard

import (
	"math"

	"stockdash/internal/domain"
)

// ChartStats holds the summary figures shown alongside the price chart.
type ChartStats struct {
	Min           float64
	Max           float64
	Current       float64 // last close
	PriceChange   float64 // last close - first close
	PercentChange float64 // PriceChange / first close * 100
	AxisMin       float64 // floor(Min * 0.95)
	AxisMax       float64 // ceil(Max * 1.05)
	From          domain.Date
	To            domain.Date
}

// ComputeChart summarises points in their given order. An empty slice yields
// zero stats.
func ComputeChart(points []domain.PricePoint) ChartStats {
	if len(points) == 0 {
		return ChartStats{}
	}
	first, last := points[0], points[len(points)-1]
	s := ChartStats{
		Min:     math.MaxFloat64,
		Max:     -math.MaxFloat64,
		Current: last.CloseUSD,
		From:    first.AsOf,
		To:      last.AsOf,
	}
	for i := range points {
		p := points[i].CloseUSD
		if p < s.Min {
			s.Min = p
		}
		if p > s.Max {
			s.Max = p
		}
	}
	s.PriceChange = last.CloseUSD - first.CloseUSD
	if first.CloseUSD != 0 {
		s.PercentChange = s.PriceChange / first.CloseUSD * 100
	}
	s.AxisMin = math.Floor(s.Min * 0.95)
	s.AxisMax = math.Ceil(s.Max * 1.05)
	return s
}

// Up reports whether the series closed at or above where it opened.
func (s ChartStats) Up() bool { return s.PriceChange >= 0 }
