package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/form"
	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/tui/keys"
	tuimodel "github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

var (
	sections = []string{"Profile", "Password", "Email", "Share"}
	statuses = []model.Status{model.StatusOnline, model.StatusAway, model.StatusBusy, model.StatusOffline}
)

// ProfileView is the profile screen: editable profile, password and email
// changes, and a QR code others can scan.
type ProfileView struct {
	*tview.Flex
	env   *Env
	state *tuimodel.Profile

	menu     *tview.List
	pages    *tview.Pages
	header   *tview.TextView
	profile  *tview.Form
	password *tview.Form
	email    *tview.Form
	share    *tview.TextView

	edit    form.Profile
	pw      form.Password
	em      form.Email
	dirty   bool
	filling bool
	actions []*keys.Action
}

// NewProfileView creates the profile screen over state.
func NewProfileView(env *Env, state *tuimodel.Profile) *ProfileView {
	theme := env.Theme
	pv := &ProfileView{
		env:      env,
		state:    state,
		menu:     tview.NewList().ShowSecondaryText(false),
		pages:    tview.NewPages(),
		header:   tview.NewTextView().SetDynamicColors(true),
		profile:  newForm(theme, " Profile "),
		password: newForm(theme, " Change password "),
		email:    newForm(theme, " Change email "),
		share:    tview.NewTextView().SetDynamicColors(false).SetTextAlign(tview.AlignCenter),
	}

	pv.menu.SetBorder(true)
	pv.menu.SetBorderColor(theme.BorderColor)
	pv.menu.SetBackgroundColor(theme.BgColor)
	pv.menu.SetMainTextColor(theme.FgColor)
	pv.menu.SetSelectedTextColor(theme.TableCursorFg)
	pv.menu.SetSelectedBackgroundColor(theme.TableCursorBg)
	pv.menu.SetTitle(" Account ")
	pv.menu.SetTitleColor(theme.TitleColor)
	for i, s := range sections {
		pv.menu.AddItem(fmt.Sprintf("%d %s", i+1, s), "", 0, nil)
	}
	pv.menu.SetChangedFunc(func(i int, _ string, _ string, _ rune) {
		pv.pages.SwitchToPage(sections[i])
	})
	pv.menu.SetSelectedFunc(func(i int, _ string, _ string, _ rune) {
		pv.enter(i)
	})

	pv.header.SetBackgroundColor(theme.BgColor)
	pv.share.SetBorder(true)
	pv.share.SetBorderColor(theme.BorderColor)
	pv.share.SetBackgroundColor(theme.BgColor)
	pv.share.SetTextColor(theme.FgColor)
	pv.share.SetTitle(" Share ")
	pv.share.SetTitleColor(theme.TitleColor)

	profilePage := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(pv.header, 4, 0, false).
		AddItem(pv.profile, 0, 1, true)
	pv.pages.AddPage(sections[0], profilePage, true, true)
	pv.pages.AddPage(sections[1], pv.password, true, false)
	pv.pages.AddPage(sections[2], pv.email, true, false)
	pv.pages.AddPage(sections[3], pv.share, true, false)

	pv.Flex = tview.NewFlex().
		AddItem(pv.menu, 16, 0, true).
		AddItem(pv.pages, 0, 1, false)

	pv.filling = true
	pv.buildProfileForm()
	pv.buildPasswordForm()
	pv.buildEmailForm()
	pv.filling = false

	pv.actions = []*keys.Action{
		{Key: tcell.KeyRune, Rune: 'c', Description: "Chats", Visible: true, Handler: func() { env.Navigate(guard.RouteChat) }},
	}
	for i := range sections {
		idx := i
		pv.actions = append(pv.actions, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('1' + i),
			Handler: func() { pv.menu.SetCurrentItem(idx) },
		})
	}
	return pv
}

func newForm(theme *ui.Theme, title string) *tview.Form {
	f := tview.NewForm()
	f.SetBorder(true)
	f.SetBorderColor(theme.BorderColor)
	f.SetBackgroundColor(theme.BgColor)
	f.SetTitle(title)
	f.SetTitleColor(theme.TitleColor)
	f.SetFieldBackgroundColor(theme.TableCursorBg)
	f.SetFieldTextColor(theme.FgColor)
	f.SetLabelColor(theme.MenuKeyColor)
	f.SetButtonBackgroundColor(theme.BorderColor)
	return f
}

func (pv *ProfileView) changed(set func(string)) func(string) {
	return func(s string) {
		set(s)
		if !pv.filling {
			pv.dirty = true
		}
	}
}

func (pv *ProfileView) buildProfileForm() {
	opts := make([]string, len(statuses))
	for i, s := range statuses {
		opts[i] = string(s)
	}
	pv.profile.
		AddInputField("Display name", "", fieldWidth, nil, pv.changed(func(s string) { pv.edit.DisplayName = s })).
		AddInputField("Bio", "", fieldWidth, nil, pv.changed(func(s string) { pv.edit.Bio = s })).
		AddInputField("Phone", "", fieldWidth, nil, pv.changed(func(s string) { pv.edit.Phone = s })).
		AddDropDown("Status", opts, 0, func(_ string, i int) {
			if i >= 0 {
				pv.edit.Status = statuses[i]
				if !pv.filling {
					pv.dirty = true
				}
			}
		}).
		AddButton("Save", pv.save).
		AddButton("Reset", func() {
			pv.dirty = false
			pv.fill()
		})
}

func (pv *ProfileView) buildPasswordForm() {
	pv.password.
		AddPasswordField("Current password", "", fieldWidth, '*', func(s string) { pv.pw.Current = s }).
		AddPasswordField("New password", "", fieldWidth, '*', func(s string) { pv.pw.New = s }).
		AddPasswordField("Confirm password", "", fieldWidth, '*', func(s string) { pv.pw.Confirm = s }).
		AddButton("Change password", pv.changePassword)
}

func (pv *ProfileView) buildEmailForm() {
	pv.email.
		AddInputField("New email", "", fieldWidth, nil, func(s string) { pv.em.NewEmail = s }).
		AddPasswordField("Password", "", fieldWidth, '*', func(s string) { pv.em.Password = s }).
		AddButton("Change email", pv.changeEmail)
}

func (pv *ProfileView) enter(i int) {
	switch sections[i] {
	case "Profile":
		pv.env.SetFocus(pv.profile)
	case "Password":
		pv.env.SetFocus(pv.password)
	case "Email":
		pv.env.SetFocus(pv.email)
	}
}

func (pv *ProfileView) save() {
	f := pv.edit
	pv.env.background(func(ctx context.Context) {
		if err := pv.state.Save(ctx, f); err == nil {
			pv.env.Queue(func() {
				pv.dirty = false
				pv.fill()
			})
		}
	})
}

func (pv *ProfileView) changePassword() {
	f := pv.pw
	pv.env.background(func(ctx context.Context) {
		if err := pv.state.ChangePassword(ctx, f); err == nil {
			pv.env.Queue(func() {
				pv.pw = form.Password{}
				clearFields(pv.password)
				pv.env.SetFocus(pv.menu)
			})
		}
	})
}

func (pv *ProfileView) changeEmail() {
	f := pv.em
	f.NewEmail = strings.TrimSpace(f.NewEmail)
	pv.env.background(func(ctx context.Context) {
		if err := pv.state.ChangeEmail(ctx, f); err == nil {
			pv.env.Queue(func() {
				pv.em = form.Email{}
				clearFields(pv.email)
				pv.env.SetFocus(pv.menu)
			})
		}
	})
}

// UploadPhoto replaces the profile photo with the file at path.
func (pv *ProfileView) UploadPhoto(path string) {
	pv.env.background(func(ctx context.Context) {
		_ = pv.state.UploadPhoto(ctx, path)
	})
}

// RemovePhoto clears the profile photo.
func (pv *ProfileView) RemovePhoto() {
	pv.env.background(func(ctx context.Context) {
		_ = pv.state.RemovePhoto(ctx)
	})
}

func clearFields(f *tview.Form) {
	for i := 0; i < f.GetFormItemCount(); i++ {
		if in, ok := f.GetFormItem(i).(*tview.InputField); ok {
			in.SetText("")
		}
	}
}

// fill copies the stored profile into the form unless the user is editing it.
func (pv *ProfileView) fill() {
	if pv.dirty {
		return
	}
	pv.filling = true
	defer func() { pv.filling = false }()

	pv.edit = pv.state.Form()
	setText(pv.profile, "Display name", pv.edit.DisplayName)
	setText(pv.profile, "Bio", pv.edit.Bio)
	setText(pv.profile, "Phone", pv.edit.Phone)
	if dd, ok := pv.profile.GetFormItemByLabel("Status").(*tview.DropDown); ok {
		for i, s := range statuses {
			if s == pv.edit.Status {
				dd.SetCurrentOption(i)
			}
		}
	}
}

func setText(f *tview.Form, label, text string) {
	if in, ok := f.GetFormItemByLabel(label).(*tview.InputField); ok {
		in.SetText(text)
	}
}

// Refresh redraws from the view-state.
func (pv *ProfileView) Refresh() {
	theme := pv.env.Theme
	cur := pv.state.Current()
	pv.header.Clear()
	switch {
	case !pv.state.Loaded():
		_, _ = fmt.Fprint(pv.header, "\n  Loading profile...")
	case cur == nil:
		_, _ = fmt.Fprint(pv.header, "\n  No profile yet. Fill in the form and save.")
	default:
		dot := ui.ColorTag(theme.StatusColor(string(cur.Status), cur.IsOnline))
		_, _ = fmt.Fprintf(pv.header, "\n  [%s::b] %s [-:-:-]  [::b]%s[-:-:-]  [%s]●[-] %s\n  %s   photo: %s",
			ui.ColorTag(theme.TitleColor), display(pv.state.Initials()), display(cur.DisplayName),
			dot, cur.Status, display(cur.Email), display(dash(cur.PhotoURL)))
	}
	if pv.state.Busy() {
		_, _ = fmt.Fprint(pv.header, "  [::d]saving...[-:-:-]")
	}
	pv.fill()

	pv.share.Clear()
	name := model.UnknownUser
	if cur != nil {
		name = sanitizeForTerminal(cur.DisplayName, true)
	}
	_, _ = fmt.Fprintf(pv.share, "\n%s  (%s)\n\n%s\n%s\n", name, pv.state.Initials(),
		renderQR(pv.state.ShareLink()), pv.state.ShareLink())
}

// Name implements Component.
func (pv *ProfileView) Name() string { return guard.RouteProfile }

// Start implements Component.
func (pv *ProfileView) Start(ctx context.Context) error {
	pv.dirty = false
	if err := pv.state.Start(ctx); err != nil {
		return err
	}
	pv.Refresh()
	return nil
}

// Stop implements Component.
func (pv *ProfileView) Stop() {
	pv.state.Stop()
}

// Hints implements Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	return append([]ui.MenuHint{
		{Key: "Enter", Description: "Edit"},
		{Key: "1-4", Description: "Section", Numeric: true},
	}, hints(pv.actions)...)
}

// Actions implements Screen.
func (pv *ProfileView) Actions() []*keys.Action {
	return pv.actions
}

// Back returns from a form to the section list.
func (pv *ProfileView) Back() bool {
	if pv.env.focused() == pv.menu {
		return false
	}
	pv.env.SetFocus(pv.menu)
	return true
}

// Focus implements tview.Primitive.
func (pv *ProfileView) Focus(delegate func(p tview.Primitive)) {
	delegate(pv.menu)
}
