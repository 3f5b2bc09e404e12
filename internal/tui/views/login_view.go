package views

import (
	"context"
	"fmt"

	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/tui/keys"
	tuimodel "github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

const fieldWidth = 40

// LoginView is the sign-in and registration screen.
type LoginView struct {
	*tview.Flex
	env   *Env
	state *tuimodel.Login
	form  *tview.Form
	info  *tview.TextView

	email, password, name string
}

// NewLoginView creates the login screen over state.
func NewLoginView(env *Env, state *tuimodel.Login) *LoginView {
	lv := &LoginView{
		env:   env,
		state: state,
		form:  tview.NewForm(),
		info:  tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}
	theme := env.Theme
	lv.form.SetBorder(true)
	lv.form.SetBorderColor(theme.BorderColor)
	lv.form.SetBackgroundColor(theme.BgColor)
	lv.form.SetTitleColor(theme.TitleColor)
	lv.form.SetFieldBackgroundColor(theme.TableCursorBg)
	lv.form.SetFieldTextColor(theme.FgColor)
	lv.form.SetLabelColor(theme.MenuKeyColor)
	lv.form.SetButtonBackgroundColor(theme.BorderColor)
	lv.info.SetBackgroundColor(theme.BgColor)

	box := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(lv.form, 13, 0, true).
		AddItem(lv.info, 2, 0, false).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(box, fieldWidth+20, 0, true).
		AddItem(nil, 0, 1, false)
	lv.Flex.SetBackgroundColor(theme.BgColor)

	lv.build()
	return lv
}

// build lays out the form for the current mode, keeping typed values.
func (lv *LoginView) build() {
	register := lv.state.Registering()
	lv.form.Clear(true)
	if register {
		lv.form.SetTitle(" Create account ")
		lv.form.AddInputField("Display name", lv.name, fieldWidth, nil, func(s string) { lv.name = s })
	} else {
		lv.form.SetTitle(" Sign in ")
	}
	lv.form.AddInputField("Email", lv.email, fieldWidth, nil, func(s string) { lv.email = s })
	lv.form.AddPasswordField("Password", lv.password, fieldWidth, '*', func(s string) { lv.password = s })

	if register {
		lv.form.AddButton("Create account", lv.submit)
		lv.form.AddButton("I have an account", lv.toggle)
	} else {
		lv.form.AddButton("Sign in", lv.submit)
		lv.form.AddButton("Register", lv.toggle)
	}
	lv.form.SetFocus(0)
	lv.Refresh()
}

func (lv *LoginView) toggle() {
	lv.state.Toggle()
	lv.build()
}

func (lv *LoginView) submit() {
	if lv.state.Busy() {
		return
	}
	email, password, name := lv.email, lv.password, lv.name
	lv.info.SetText("[::d]Please wait...[-:-:-]")
	lv.env.background(func(ctx context.Context) {
		ok := lv.state.Submit(ctx, email, password, name)
		lv.env.Queue(func() {
			if ok {
				lv.password = ""
				lv.env.Navigate(guard.RouteChat)
				return
			}
			lv.Refresh()
		})
	})
}

// Refresh shows the form-level error.
func (lv *LoginView) Refresh() {
	lv.info.Clear()
	if msg := lv.state.Error(); msg != "" {
		_, _ = fmt.Fprintf(lv.info, "[%s]%s[-]", ui.ColorTag(lv.env.Theme.FlashErrColor), display(msg))
	}
}

// Name implements Component.
func (lv *LoginView) Name() string { return guard.RouteLogin }

// Start implements Component.
func (lv *LoginView) Start(context.Context) error {
	lv.password = ""
	lv.build()
	return nil
}

// Stop implements Component.
func (lv *LoginView) Stop() {}

// Hints implements Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// Actions implements Screen. Every key goes to the form.
func (lv *LoginView) Actions() []*keys.Action { return nil }

// Back implements Screen.
func (lv *LoginView) Back() bool { return true }

// Focus implements tview.Primitive.
func (lv *LoginView) Focus(delegate func(p tview.Primitive)) {
	delegate(lv.form)
}
