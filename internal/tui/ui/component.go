package ui

import (
	"context"

	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// Component is the lifecycle interface for all TUI screens. Start opens the
// screen's subscriptions and Stop cancels them; Pages calls each once per push.
type Component interface {
	tview.Primitive
	Name() string
	Start(ctx context.Context) error
	Stop()
	Hints() []MenuHint
}
