package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stockdash/internal/dashboard"
)

const listWidth = 18

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render(padOrTrunc(" "+m.title+"  "+m.headerStatus(), m.width))
	footer := footerStyle.Render(padOrTrunc(" "+helpLine(
		keys.Quit, keys.Up, keys.Down, keys.Select, keys.Clear, keys.Next,
	), m.width))

	left := titleStyle.Render(padOrTrunc("Stocks", listWidth)) + "\n" + m.renderCatalog()
	rightWidth := m.width - listWidth - 3
	if rightWidth < 20 {
		rightWidth = 20
	}
	right := lipgloss.NewStyle().Width(rightWidth).Render(m.renderDetail(rightWidth))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(left),
		dimStyle.Render(" │ "),
		right,
	)
	body = lipgloss.NewStyle().Height(m.height - 2).MaxHeight(m.height - 2).Render(body)

	return header + "\n" + body + "\n" + footer
}

func (m Model) headerStatus() string {
	v := m.view
	switch v.CatalogMode {
	case dashboard.CatalogReady:
		s := fmt.Sprintf("symbols: %s", dashboard.FormatInt(int64(len(v.Symbols))))
		if v.Selected != "" {
			s += "    selected: " + v.Selected
		}
		return s
	case dashboard.CatalogError:
		return "symbols: unavailable"
	}
	return "symbols: loading"
}

func (m Model) renderCatalog() string {
	switch m.view.CatalogMode {
	case dashboard.CatalogLoading:
		return m.spinner.View() + dimStyle.Render(" Loading...")
	case dashboard.CatalogError:
		// The full message is shown in the detail pane.
		return errorStyle.Render(padOrTrunc(" Unavailable", listWidth))
	}
	if len(m.view.Symbols) == 0 {
		return dimStyle.Render("No stocks available")
	}
	return m.list.View()
}

// renderList renders every catalog symbol, one per line, for the viewport.
func (m Model) renderList() string {
	var b strings.Builder
	for i, sym := range m.view.Symbols {
		line := padOrTrunc(" "+sym, listWidth)
		switch {
		case i == m.cursor && m.focus == focusList:
			b.WriteString(cursorStyle.Render(line))
		case sym == m.view.Selected:
			b.WriteString(selectedStyle.Render(line))
		default:
			b.WriteString(symbolStyle.Render(line))
		}
		if i < len(m.view.Symbols)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderDetail(width int) string {
	v := m.view
	switch v.ChartMode {
	case dashboard.ChartNoSelection:
		if v.CatalogMode == dashboard.CatalogError {
			return errorStyle.Render(padOrTrunc(v.CatalogErr, width))
		}
		return dimStyle.Render("Select a stock to view its price chart")
	case dashboard.ChartLoading:
		return m.spinner.View() + dimStyle.Render(" Loading chart data...")
	case dashboard.ChartError:
		return errorStyle.Render(v.ChartErr)
	case dashboard.ChartEmpty:
		return dimStyle.Render("No price data for " + v.Selected)
	}

	var b strings.Builder
	b.WriteString(m.renderStats())
	b.WriteString("\n")

	chartHeight := m.height - 16
	if chartHeight < 6 {
		chartHeight = 6
	}
	b.WriteString(renderChart(v.Points, v.Stats, width-2, chartHeight))
	b.WriteString("\n")
	b.WriteString(m.renderPointPanel())
	b.WriteString("\n")
	b.WriteString(m.renderRangePanel())
	return b.String()
}

func (m Model) renderStats() string {
	s := m.view.Stats
	title := titleStyle.Render(m.view.Selected) + "  " +
		dimStyle.Render(dashboard.FormatDate(s.From)+" - "+dashboard.FormatDate(s.To))
	change := changeStyle(s.PriceChange).Render(
		dashboard.FormatChange(s.PriceChange) + " (" + dashboard.FormatPercent(s.PercentChange) + ")")
	line := strings.Join([]string{
		stat("Current", dashboard.FormatCurrency(s.Current)),
		labelStyle.Render("Change ") + change,
		stat("Low", dashboard.FormatCurrency(s.Min)),
		stat("High", dashboard.FormatCurrency(s.Max)),
	}, "   ")
	return title + "\n" + line
}

func stat(label, value string) string {
	return labelStyle.Render(label+" ") + valueStyle.Render(value)
}

func (m Model) renderPointPanel() string {
	var b strings.Builder
	b.WriteString(m.fieldLabel("Price on date", focusPoint))
	b.WriteString(m.point.View())
	pv := m.view.Point
	switch {
	case pv.Loading:
		b.WriteString("  " + m.spinner.View() + dimStyle.Render(" Loading..."))
	case pv.Err != "":
		b.WriteString("  " + errorStyle.Render(pv.Err))
	case pv.Result != nil:
		b.WriteString("  " + stat("Price on "+pv.Result.AsOf.String()+":", dashboard.FormatCurrency(pv.Result.CloseUSD)))
		b.WriteString("  " + stat("Volume", dashboard.FormatVolume(pv.Result.Volume)))
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderRangePanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Cumulative Returns"))
	b.WriteString("\n")
	b.WriteString(m.fieldLabel("Start", focusStart))
	b.WriteString(m.start.View())
	b.WriteString("  ")
	b.WriteString(m.fieldLabel("End", focusEnd))
	b.WriteString(m.end.View())

	rv := m.view.Range
	switch {
	case rv.Loading:
		b.WriteString("\n" + m.spinner.View() + dimStyle.Render(" Calculating..."))
	case rv.Err != "":
		b.WriteString("\n" + errorStyle.Render(rv.Err))
	case rv.Result != nil:
		r := rv.Result
		b.WriteString("\n" + stat("Start Price:", dashboard.FormatCurrency(r.StartPrice)))
		b.WriteString("   " + stat("End Price:", dashboard.FormatCurrency(r.EndPrice)))
		b.WriteString("   " + labelStyle.Render("Cumulative Return: ") +
			changeStyle(r.CumulativeReturn).Render(fmt.Sprintf("%.2f%%", r.CumulativeReturn)))
	}
	return panelStyle.Render(b.String())
}

func (m Model) fieldLabel(label string, f focus) string {
	if m.focus == f {
		return focusStyle.Render("> " + label + ": ")
	}
	return labelStyle.Render("  " + label + ": ")
}

// padOrTrunc pads s with spaces or truncates it to exactly width runes.
func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
