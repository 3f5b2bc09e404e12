package ui

import (
	"context"

	"github.com/rivo/tview"
)

// Pages is a stack of screens wrapping tview.Pages. A screen is started when
// pushed and stopped when it leaves the stack.
type Pages struct {
	*tview.Pages
	stack    []Component
	onChange func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
	}
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push starts c and shows it on top of the stack. Nothing changes when Start fails.
func (p *Pages) Push(ctx context.Context, c Component) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	if top := p.Current(); top != nil {
		p.HidePage(top.Name())
	}
	if !p.HasPage(c.Name()) {
		p.AddPage(c.Name(), c, true, false)
	}
	p.stack = append(p.stack, c)
	p.ShowPage(c.Name())
	p.SendToFront(c.Name())
	p.notify()
	return nil
}

// Pop stops and removes the top screen and shows the previous one. The last
// screen is never popped; nil is returned instead.
func (p *Pages) Pop() Component {
	if len(p.stack) < 2 {
		return nil
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	top.Stop()
	p.RemovePage(top.Name())
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current.Name())
	p.SendToFront(current.Name())
	p.notify()
	return top
}

// Current returns the top screen.
func (p *Pages) Current() Component {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns the names of the screens on the stack, bottom first.
func (p *Pages) Stack() []string {
	s := make([]string, len(p.stack))
	for i, c := range p.stack {
		s[i] = c.Name()
	}
	return s
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset stops every screen on the stack and shows only c.
func (p *Pages) Reset(ctx context.Context, c Component) error {
	p.StopAll()
	return p.Push(ctx, c)
}

// StopAll stops and removes every screen.
func (p *Pages) StopAll() {
	for i := len(p.stack) - 1; i >= 0; i-- {
		p.stack[i].Stop()
		p.RemovePage(p.stack[i].Name())
	}
	p.stack = nil
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
