package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/banshee-data/tactile/internal/dashboard"
)

// Enabled reports whether the terminal UI should run for the given setting:
// "on" forces it, "off" disables it and "auto" enables it when stdin and
// stdout are both terminals.
func Enabled(setting string) bool {
	switch setting {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout.Fd()) && isTerminal(os.Stdin.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run shows the dashboard until the user quits or ctx is done. Quitting
// returns nil.
func Run(ctx context.Context, store *dashboard.Store, sel Selector) error {
	p := tea.NewProgram(
		NewModel(ctx, store, sel),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
