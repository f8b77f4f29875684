package tui

import "github.com/charmbracelet/lipgloss"

// Styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("8"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	symbolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")) // orange for the active selection
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Background(highlightBG)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	focusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lineUpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lineDownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	axisStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	highlightBG    = lipgloss.Color("236") // dark grey background
)

// changeStyle picks green for gains and red for losses.
func changeStyle(v float64) lipgloss.Style {
	if v >= 0 {
		return gainStyle
	}
	return lossStyle
}
