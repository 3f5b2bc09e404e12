package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Crumbs shows where the user is: instance, signed-in user, then the screen
// stack with the active screen highlighted.
type Crumbs struct {
	*tview.TextView
	theme  *Theme
	prefix []string
	stack  []string
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
	}
}

// SetRoot sets the leading crumbs, normally the instance and the user. Empty
// parts are skipped.
func (c *Crumbs) SetRoot(parts ...string) {
	c.prefix = c.prefix[:0]
	for _, p := range parts {
		if p != "" {
			c.prefix = append(c.prefix, p)
		}
	}
	c.render()
}

// Update renders the trail for the screen stack, bottom first.
func (c *Crumbs) Update(stack []string) {
	c.stack = append(c.stack[:0], stack...)
	c.render()
}

func (c *Crumbs) render() {
	c.Clear()
	if len(c.stack) == 0 {
		return
	}
	inactive := fmt.Sprintf("[%s:%s:]", colorName(c.theme.CrumbInactiveFg), colorName(c.theme.CrumbInactiveBg))
	active := fmt.Sprintf("[%s:%s:b]", colorName(c.theme.CrumbActiveFg), colorName(c.theme.CrumbActiveBg))

	trail := append(append([]string(nil), c.prefix...), c.stack...)
	parts := make([]string, len(trail))
	for i, name := range trail {
		style := inactive
		if i == len(trail)-1 {
			style = active
		}
		parts[i] = fmt.Sprintf("%s %s [-:-:-]", style, tview.Escape(name))
	}
	_, _ = fmt.Fprint(c, strings.Join(parts, " > "))
}

// colorName returns a tview-compatible color name string.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
