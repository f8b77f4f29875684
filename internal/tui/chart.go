package tui

import (
	"fmt"
	"math"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"

	"stockdash/internal/dashboard"
	"stockdash/internal/domain"
)

// renderChart draws the closing prices as a braille line chart. The y range is
// the padded axis range from stats.
func renderChart(points []domain.PricePoint, stats dashboard.ChartStats, width, height int) string {
	if len(points) == 0 || width < 10 || height < 4 {
		return ""
	}

	style := lineUpStyle
	if !stats.Up() {
		style = lineDownStyle
	}

	minY, maxY := stats.AxisMin, stats.AxisMax
	if maxY <= minY {
		maxY = minY + 1
	}
	maxX := float64(len(points) - 1)
	if maxX < 1 {
		maxX = 1
	}

	yLabel := func(_ int, v float64) string {
		if v >= 1000 {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
	xLabel := func(_ int, v float64) string {
		idx := int(math.Round(v))
		if idx < 0 || idx >= len(points) {
			return ""
		}
		return dashboard.FormatShortDate(points[idx].AsOf)
	}

	lc := linechart.New(width, height,
		0, maxX,
		minY, maxY,
		linechart.WithXYSteps(4, 4),
		linechart.WithXLabelFormatter(xLabel),
		linechart.WithYLabelFormatter(yLabel),
		linechart.WithStyles(axisStyle, axisStyle, style),
	)

	if len(points) == 1 {
		p := canvas.Float64Point{X: 0, Y: points[0].CloseUSD}
		lc.DrawBrailleLineWithStyle(p, canvas.Float64Point{X: maxX, Y: p.Y}, style)
	}
	for i := 0; i < len(points)-1; i++ {
		p1 := canvas.Float64Point{X: float64(i), Y: points[i].CloseUSD}
		p2 := canvas.Float64Point{X: float64(i + 1), Y: points[i+1].CloseUSD}
		lc.DrawBrailleLineWithStyle(p1, p2, style)
	}
	lc.DrawXYAxisAndLabel()
	return lc.View()
}
