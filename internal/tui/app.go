package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caskdeck/caskdeck/internal/status"
)

// Run shows the board until the user quits, ctx is cancelled, or (with
// ExitWhenIdle) every task has finished. It returns the last snapshot
// rendered.
func Run(ctx context.Context, board *status.Board, opts Options) (status.Snapshot, error) {
	program := tea.NewProgram(NewModel(board, opts), tea.WithContext(ctx))

	final, err := program.Run()
	snap := board.Snapshot()
	if m, ok := final.(Model); ok {
		snap = m.Snapshot()
	}
	if err != nil && ctx.Err() == nil {
		return snap, fmt.Errorf("tui: %w", err)
	}
	return snap, nil
}
