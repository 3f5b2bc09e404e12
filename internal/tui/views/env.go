// Package views implements the screens of the terminal UI on top of the
// view-state in the model package.
package views

import (
	"context"

	"github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// Env is what every screen needs from the application shell.
type Env struct {
	Theme *ui.Theme
	VM    *model.ViewModel
	// Queue runs f on the UI goroutine and redraws.
	Queue func(f func())
	// Navigate switches to a route through the guards.
	Navigate func(route string)
	// SetFocus moves keyboard focus.
	SetFocus func(p tview.Primitive)
	// Focused returns the primitive that has keyboard focus.
	Focused func() tview.Primitive
}

// Refresher is implemented by screens that redraw from view-state.
type Refresher interface {
	Refresh()
}

func (e *Env) focused() tview.Primitive {
	if e.Focused == nil {
		return nil
	}
	return e.Focused()
}

// background runs a blocking call off the UI goroutine. One-shot writes are
// not tied to the screen's lifetime.
func (e *Env) background(f func(ctx context.Context)) {
	go f(context.Background())
}
