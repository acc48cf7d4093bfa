package tui

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

// EventHandler answers chat events, e.g. the conversation engine.
type EventHandler interface {
	Handle(ctx context.Context, event model.Event) (model.Reply, error)
}

// Config holds TUI configuration.
type Config struct {
	Handler EventHandler
	Theme   themes.Theme
	UserID  int64
	Width   int
	Height  int
	// History bounds the transcript kept on screen.
	History int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:   themes.Default,
		Width:   80,
		Height:  24,
		History: 200,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
