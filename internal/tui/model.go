// Package tui is the terminal front end of the stock dashboard. It drives a
// dashboard.Coordinator from bubbletea's Update loop: every fetch runs as a
// tea.Cmd and its result comes back as a message.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/dashboard"
)

// focus identifies which widget receives key input.
type focus int

const (
	focusList focus = iota
	focusPoint
	focusStart
	focusEnd
	focusCount
)

// eventMsg carries a completed dashboard fetch back into Update.
type eventMsg struct{ ev dashboard.Event }

// fetchCmd runs f off the UI loop. A nil fetch yields a nil command.
func fetchCmd(f dashboard.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return eventMsg{ev: f()}
	}
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	coord  *dashboard.Coordinator
	logger *slog.Logger
	title  string

	view   dashboard.View
	cursor int
	focus  focus

	list    viewport.Model
	point   textinput.Model
	start   textinput.Model
	end     textinput.Model
	spinner spinner.Model

	ready         bool
	width, height int
}

// New creates the model. The coordinator is owned by the model from here on;
// call Close on it after the program exits.
func New(coord *dashboard.Coordinator, logger *slog.Logger, title string) Model {
	if logger == nil {
		logger = slog.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return Model{
		coord:   coord,
		logger:  logger.With("component", "tui"),
		title:   title,
		view:    coord.View(),
		point:   dateInput("YYYY-MM-DD"),
		start:   dateInput("start YYYY-MM-DD"),
		end:     dateInput("end YYYY-MM-DD"),
		spinner: sp,
	}
}

func dateInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 32
	ti.Width = 18
	ti.Prompt = ""
	return ti
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchCmd(m.coord.Start()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.listHeight()
		if !m.ready {
			m.list = viewport.New(listWidth, vpHeight)
			m.ready = true
		} else {
			m.list.Width = listWidth
			m.list.Height = vpHeight
		}
		m.refresh()
		return m, nil

	case eventMsg:
		if m.coord.Apply(msg.ev) {
			if m.focus != focusList && !m.coord.LookupsAvailable() {
				m.setFocus(focusList)
			}
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.coord.Close()
		return m, tea.Quit
	}

	// The inputs are only reachable while the chart has data.
	if key.Matches(msg, keys.Next, keys.Prev) && !m.coord.LookupsAvailable() {
		return m, m.setFocus(focusList)
	}

	switch {
	case key.Matches(msg, keys.Next):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, keys.Prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus != focusList {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.coord.Close()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, keys.Top):
		m.moveCursor(-len(m.view.Symbols))
	case key.Matches(msg, keys.Bottom):
		m.moveCursor(len(m.view.Symbols))
	case key.Matches(msg, keys.Select):
		if m.cursor < len(m.view.Symbols) {
			return m, m.selectSymbol(m.view.Symbols[m.cursor])
		}
	case key.Matches(msg, keys.Clear):
		return m, m.selectSymbol("")
	default:
		if m.ready {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Clear):
		return m, m.setFocus(focusList)
	case key.Matches(msg, keys.Select):
		var f dashboard.Fetch
		if m.focus == focusPoint {
			f = m.coord.SubmitPoint(m.point.Value())
		} else {
			f = m.coord.SubmitRange(m.start.Value(), m.end.Value())
		}
		m.refresh()
		return m, fetchCmd(f)
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusPoint:
		m.point, cmd = m.point.Update(msg)
	case focusStart:
		m.start, cmd = m.start.Update(msg)
	case focusEnd:
		m.end, cmd = m.end.Update(msg)
	}
	return m, cmd
}

// selectSymbol changes the selection. The chart's inputs belong to the
// previous symbol and are cleared with it.
func (m *Model) selectSymbol(symbol string) tea.Cmd {
	if symbol == m.coord.Selected() {
		return nil
	}
	f := m.coord.Select(symbol)
	m.point.SetValue("")
	m.start.SetValue("")
	m.end.SetValue("")
	m.logger.Info("symbol selected", "symbol", symbol)
	m.refresh()
	return fetchCmd(f)
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.point.Blur()
	m.start.Blur()
	m.end.Blur()
	switch f {
	case focusPoint:
		return m.point.Focus()
	case focusStart:
		return m.start.Focus()
	case focusEnd:
		return m.end.Focus()
	}
	return nil
}

func (m *Model) moveCursor(delta int) {
	n := len(m.view.Symbols)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	m.refresh()
	m.ensureVisible()
}

// ensureVisible scrolls the list so the cursor line is visible.
func (m *Model) ensureVisible() {
	if !m.ready {
		return
	}
	yOff := m.list.YOffset
	h := m.list.Height
	if m.cursor < yOff {
		m.list.SetYOffset(m.cursor)
	} else if m.cursor >= yOff+h {
		m.list.SetYOffset(m.cursor - h + 1)
	}
}

// refresh re-derives the view and redraws the symbol list.
func (m *Model) refresh() {
	m.view = m.coord.View()
	if m.cursor >= len(m.view.Symbols) && len(m.view.Symbols) > 0 {
		m.cursor = len(m.view.Symbols) - 1
	}
	if m.ready {
		m.list.SetContent(m.renderList())
	}
}

func (m Model) listHeight() int {
	// header + footer + list title
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}
