package views

import (
	"fmt"

	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// PeerInfo displays the profile of the person on the other side of a thread.
type PeerInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewPeerInfo creates a new peer details panel.
func NewPeerInfo(theme *ui.Theme) *PeerInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &PeerInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the peer's profile. A nil profile shows the id only.
func (pi *PeerInfo) Update(uid string, p *model.UserProfile) {
	pi.Clear()

	fg := ui.ColorTag(pi.theme.FgColor)
	ct := ui.ColorTag(pi.theme.CounterColor)

	if p == nil {
		_, _ = fmt.Fprintf(pi, "\n [%s::b]ID:[-:-:-] [%s]%s[-]\n\n No profile yet.", fg, ct, display(uid))
		pi.SetTitle(" Details ")
		return
	}

	status := string(p.Status)
	if !p.IsOnline {
		status = "offline"
	}
	dot := ui.ColorTag(pi.theme.StatusColor(string(p.Status), p.IsOnline))
	lastSeen := "-"
	if p.LastLoginAt != nil {
		lastSeen = p.LastLoginAt.Local().Format("Jan 02 15:04")
	}

	text := fmt.Sprintf(
		"\n [%s::b]Name:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Email:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Status:[-:-:-]    [%s]● %s[-]\n"+
			" [%s::b]Phone:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Last login:[-:-:-] [%s]%s[-]\n"+
			" [%s::b]Photo:[-:-:-]     [%s]%s[-]\n\n"+
			" [%s::b]Bio[-:-:-]\n %s",
		fg, ct, display(p.DisplayName),
		fg, ct, display(p.Email),
		fg, dot, status,
		fg, ct, display(dash(p.PhoneNumber)),
		fg, ct, lastSeen,
		fg, ct, display(dash(p.PhotoURL)),
		fg, tview.Escape(sanitizeForTerminal(dash(p.Bio), false)),
	)
	_, _ = fmt.Fprint(pi, text)
	pi.SetTitle(fmt.Sprintf(" %s ", display(p.DisplayName)))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
