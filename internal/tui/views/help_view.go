package views

import (
	"context"
	"fmt"

	"github.com/matheus3301/parley/internal/tui/keys"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpName is the page name of the help screen.
const HelpName = "help"

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return HelpName }

// Start implements Component.
func (hv *HelpView) Start(context.Context) error { return nil }

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Actions implements Screen.
func (hv *HelpView) Actions() []*keys.Action { return nil }

// Back implements Screen.
func (hv *HelpView) Back() bool { return false }

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)

	help := fmt.Sprintf(`
  [::b]Global Keys[-:-:-]

  [%[1]s]:[-:-:-]      Command mode        [%[1]s]Esc[-:-:-]    Cancel / Go back
  [%[1]s]/[-:-:-]      Filter the list     [%[1]s]?[-:-:-]      Help
  [%[1]s]q[-:-:-]      Quit                [%[1]s]Ctrl-C[-:-:-] Quit immediately

  [::b]Login[-:-:-]

  [%[1]s]Tab[-:-:-]    Next field          [%[1]s]Enter[-:-:-]  Activate button
  Use the Register button to switch between signing in and creating an account.

  [::b]Chat[-:-:-]

  [%[1]s]Enter[-:-:-]  Open conversation   [%[1]s]1-9[-:-:-]    Open Nth conversation
  [%[1]s]Tab[-:-:-]    Chats / Users       [%[1]s]o[-:-:-]      Online users only
  [%[1]s]i[-:-:-]      Focus composer      [%[1]s]d[-:-:-]      Toggle peer details
  [%[1]s]x[-:-:-]      Close conversation  [%[1]s]p[-:-:-]      Open profile
  [%[1]s]Enter[-:-:-]  Send (in composer)  [%[1]s]Esc[-:-:-]    Leave composer

  [::b]Profile[-:-:-]

  [%[1]s]1[-:-:-]      Profile             [%[1]s]2[-:-:-]      Security
  [%[1]s]3[-:-:-]      Share               [%[1]s]Enter[-:-:-]  Edit section

  [::b]Commands (: mode)[-:-:-]

  [%[1]s]:chat[-:-:-] / [%[1]s]:c[-:-:-]            Conversations
  [%[1]s]:profile[-:-:-] / [%[1]s]:me[-:-:-]        Your profile
  [%[1]s]:users [online][-:-:-]       User directory
  [%[1]s]:photo <file>[-:-:-]         Upload a profile photo
  [%[1]s]:rmphoto[-:-:-]              Remove the profile photo
  [%[1]s]:logout[-:-:-]               Sign out
  [%[1]s]:help[-:-:-] / [%[1]s]:h[-:-:-]            Show this help
  [%[1]s]:quit[-:-:-] / [%[1]s]:q[-:-:-]            Quit application
`, kc)

	_, _ = fmt.Fprint(hv, help)
}
