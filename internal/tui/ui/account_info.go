package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// AccountData holds what the header shows about the instance and its user.
type AccountData struct {
	Instance string
	User     string
	Email    string
	Status   string
	Online   int
	Chats    int
	Uptime   time.Duration
}

// AccountInfo displays account metadata in the header.
type AccountInfo struct {
	*tview.TextView
	theme *Theme
}

// NewAccountInfo creates a new account info panel.
func NewAccountInfo(theme *Theme) *AccountInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &AccountInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the account info.
func (ai *AccountInfo) Update(data *AccountData) {
	ai.Clear()
	if data == nil {
		return
	}

	fg := colorName(ai.theme.FgColor)
	ct := colorName(ai.theme.CounterColor)

	user := dash(data.User)
	email := dash(data.Email)

	text := fmt.Sprintf(
		"[%s::b]Instance:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]     [%s]%s[-]\n"+
			"[%s::b]Email:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Online:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Chats:[-:-:-]    [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]   [%s]%s[-]",
		fg, ct, tview.Escape(data.Instance),
		fg, ct, tview.Escape(user),
		fg, ct, tview.Escape(email),
		fg, ct, dash(data.Status),
		fg, ct, data.Online,
		fg, ct, data.Chats,
		fg, ct, formatDuration(data.Uptime),
	)

	_, _ = fmt.Fprint(ai, text)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
