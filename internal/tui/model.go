// Package tui renders the tactile dashboard in a terminal.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/banshee-data/tactile/internal/dashboard"
)

// Selector changes the selected row. *dashboard.Dashboard implements it.
type Selector interface {
	SelectRow(row int) error
	Selected() int
	Rows() int
}

// stateMsg carries a fresh copy of the rendered state.
type stateMsg dashboard.State

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx   context.Context
	store *dashboard.Store
	sel   Selector

	state  dashboard.State
	keys   keyMap
	help   help.Model
	width  int
	status string
}

// NewModel returns a model drawing from store and selecting rows through sel.
func NewModel(ctx context.Context, store *dashboard.Store, sel Selector) Model {
	return Model{
		ctx:   ctx,
		store: store,
		sel:   sel,
		state: store.State(),
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
}

// waitForState blocks until the store changes or ctx is done.
func waitForState(ctx context.Context, store *dashboard.Store) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-store.Updated():
			return stateMsg(store.State())
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(dashboard.WindowTitle),
		waitForState(m.ctx, m.store),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = dashboard.State(msg)
		return m, waitForState(m.ctx, m.store)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if row := m.sel.Selected() - 1; row >= 0 {
				m = m.selectRow(row)
			}
		case key.Matches(msg, m.keys.Down):
			if row := m.sel.Selected() + 1; row < m.sel.Rows() {
				m = m.selectRow(row)
			}
		case key.Matches(msg, m.keys.Select):
			row, err := strconv.ParseInt(msg.String(), 16, 0)
			if err == nil {
				m = m.selectRow(int(row))
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if row, ok := m.buttonAt(msg.X, msg.Y); ok {
				m = m.selectRow(row)
			}
		}
	}
	return m, nil
}

func (m Model) selectRow(row int) Model {
	if err := m.sel.SelectRow(row); err != nil {
		m.status = err.Error()
		return m
	}
	m.status = ""
	m.state = m.store.State()
	return m
}

// buttonAt maps a terminal cell to the row button drawn there.
func (m Model) buttonAt(x, y int) (int, bool) {
	line := y - headerLines - 1
	if line < 0 {
		return 0, false
	}
	x -= heatmapWidth(m.state.Heatmap.Cols()) + panelGap
	if x < 0 {
		return 0, false
	}
	col := x / (buttonWidth + 1)
	if col >= buttonColumns || x%(buttonWidth+1) == buttonWidth {
		return 0, false
	}
	row := line*buttonColumns + col
	if row >= m.sel.Rows() {
		return 0, false
	}
	return row, true
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(dashboard.WindowTitle))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.heatmapView(),
		strings.Repeat(" ", panelGap),
		m.buttonsView(),
	))
	b.WriteString("\n\n")
	b.WriteString(m.lineView())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) heatmapView() string {
	st := m.state
	cm := dashboard.NewColorMap(st.Range)
	lines := []string{sectionStyle.Render(dashboard.HeatmapTitle)}
	for r := 0; r < st.Heatmap.Rows(); r++ {
		cells := []string{rowLabelStyle.Render(strconv.Itoa(r))}
		for c := 0; c < st.Heatmap.Cols(); c++ {
			bg := dashboard.Hex(cm.At(st.Heatmap.At(r, c)))
			cells = append(cells, cellStyle.Background(lipgloss.Color(bg)).Render(strconv.Itoa(label(st, r, c))))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	footer := []string{rowLabelStyle.Render("")}
	for c := 0; c < st.Heatmap.Cols(); c++ {
		footer = append(footer, dimStyle.Width(cellWidth).Align(lipgloss.Center).Render("c"+strconv.Itoa(c)))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, footer...))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// label returns the text drawn over a cell, falling back to the heatmap
// value when no label has been set for it.
func label(st dashboard.State, r, c int) int {
	if r < len(st.Labels) && c < len(st.Labels[r]) {
		return st.Labels[r][c]
	}
	return st.Heatmap.At(r, c)
}

func (m Model) buttonsView() string {
	selected := m.sel.Selected()
	lines := []string{sectionStyle.Render("Rows")}
	rows := m.sel.Rows()
	for first := 0; first < rows; first += buttonColumns {
		var buttons []string
		for row := first; row < min(first+buttonColumns, rows); row++ {
			style := buttonStyle
			if row == selected {
				style = selectedButtonStyle
			}
			if len(buttons) > 0 {
				buttons = append(buttons, " ")
			}
			buttons = append(buttons, style.Render(fmt.Sprintf("Row %d", row)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) lineView() string {
	st := m.state
	lines := []string{sectionStyle.Render(st.Title)}
	for c, v := range st.Values {
		filled := int(st.Range.Normalize(v)*barWidth + 0.5)
		lines = append(lines, fmt.Sprintf("%s %s%s %d",
			rowLabelStyle.Render("c"+strconv.Itoa(c)),
			barStyle.Render(strings.Repeat("█", filled)),
			dimStyle.Render(strings.Repeat("░", barWidth-filled)),
			v,
		))
	}
	s := dashboard.Summarize(st.Values)
	lines = append(lines, dimStyle.Render(fmt.Sprintf("min %.0f  max %.0f  mean %.1f  range [%d, %d]",
		s.Min, s.Max, s.Mean, st.Range.Min, st.Range.Max)))
	return strings.Join(lines, "\n")
}
