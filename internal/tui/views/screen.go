package views

import (
	"github.com/matheus3301/parley/internal/tui/keys"
	"github.com/matheus3301/parley/internal/tui/ui"
)

// Screen is a routed page of the application.
type Screen interface {
	ui.Component
	// Actions are the key bindings active while the screen is on top.
	Actions() []*keys.Action
	// Back handles Esc inside the screen. It returns false when the screen
	// has nothing to step back from.
	Back() bool
}

// Filterable is implemented by screens with a filterable list.
type Filterable interface {
	SetFilter(filter string)
}

func hints(actions []*keys.Action) []ui.MenuHint {
	r := keys.NewRegistry()
	r.SetView("", actions)
	return r.Hints("")
}
