package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/banshee-data/tactile/internal/dashboard"
)

// Layout constants shared by View and the mouse hit test.
const (
	headerLines   = 2 // window title and a blank line
	rowLabelWidth = 4
	cellWidth     = 7
	panelGap      = 3
	buttonWidth   = 8
	buttonColumns = 2
	barWidth      = 30
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f0f921"))

	sectionStyle = lipgloss.NewStyle().Bold(true)

	rowLabelStyle = lipgloss.NewStyle().
			Width(rowLabelWidth).
			Foreground(lipgloss.Color("244"))

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("#ffffff"))

	buttonStyle = lipgloss.NewStyle().
			Width(buttonWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))

	selectedButtonStyle = buttonStyle.
				Bold(true).
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#fb9f3a"))

	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa500"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

// heatmapWidth is the rendered width of the heatmap panel.
func heatmapWidth(cols int) int {
	return max(lipgloss.Width(dashboard.HeatmapTitle), rowLabelWidth+cols*cellWidth)
}
