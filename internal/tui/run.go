package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the chat console for the configured user until it is quit or ctx
// is cancelled.
func Run(ctx context.Context, handler EventHandler, userID int64, opts ...Option) error {
	if handler == nil {
		return fmt.Errorf("event handler is required")
	}

	cfg := defaultConfig()
	cfg.Handler = handler
	cfg.UserID = userID
	for _, opt := range opts {
		opt(&cfg)
	}

	p := tea.NewProgram(newModel(ctx, cfg), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat console failed: %w", err)
	}
	return nil
}
