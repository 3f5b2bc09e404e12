// Package tui is the terminal client: a header with account details and key
// hints, a stack of routed screens, a flash bar and a command prompt.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/status"
	"github.com/matheus3301/parley/internal/tui/keys"
	"github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/matheus3301/parley/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	headerHeight = 7
	statsEvery   = 5 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	vm       *model.ViewModel
	theme    *ui.Theme
	registry *keys.Registry
	router   *model.Router
	logger   *zap.Logger

	account  *ui.AccountInfo
	menu     *ui.Menu
	logo     *ui.Logo
	crumbs   *ui.Crumbs
	pages    *ui.Pages
	flashBar *ui.FlashBar
	prompt   *ui.Prompt
	body     *tview.Flex

	env     *views.Env
	login   *views.LoginView
	chat    *views.ChatView
	profile *views.ProfileView
	help    *views.HelpView

	promptOpen bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewApp creates the TUI application over a view model whose session has
// already been restored.
func NewApp(vm *model.ViewModel, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		vm:       vm,
		theme:    theme,
		registry: keys.NewRegistry(),
		router:   model.NewRouter(vm.Session.Machine()),
		logger:   logger,
		account:  ui.NewAccountInfo(theme),
		menu:     ui.NewMenu(theme),
		logo:     ui.NewLogo(theme),
		crumbs:   ui.NewCrumbs(theme),
		pages:    ui.NewPages(),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.env = &views.Env{
		Theme:    theme,
		VM:       vm,
		Queue:    func(f func()) { a.app.QueueUpdateDraw(f) },
		Navigate: a.navigate,
		SetFocus: func(p tview.Primitive) { a.app.SetFocus(p) },
		Focused:  func() tview.Primitive { return a.app.GetFocus() },
	}
	a.login = views.NewLoginView(a.env, model.NewLogin(vm))
	a.crumbs.SetRoot(vm.Instance)

	a.setupBindings()
	a.setupPrompt()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Description: "Command", Visible: true,
		Handler: func() { a.openPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Description: "Filter", Visible: true,
		Handler: func() { a.openPrompt(ui.PromptFilter) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "Help", Visible: true,
		Handler: a.showHelp,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "Quit", Visible: true,
		Handler: a.Stop,
	})
}

func (a *App) setupPrompt() {
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		switch mode {
		case ui.PromptCommand:
			a.execute(ParseCommand(text))
		case ui.PromptFilter:
			if f, ok := a.pages.Current().(views.Filterable); ok {
				f.SetFilter(strings.TrimSpace(text))
			}
		}
	})
	a.prompt.SetOnCancel(a.closePrompt)
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.account, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(a.logo, 30, 0, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false)

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		if top, ok := a.pages.Current().(views.Screen); ok {
			a.registry.SetView(top.Name(), top.Actions())
			a.menu.Update(append(top.Hints(), a.registry.Hints("")...))
		}
	})

	a.app.SetRoot(a.body, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.promptOpen {
		return ev
	}
	top, _ := a.pages.Current().(views.Screen)
	if ev.Key() == tcell.KeyEscape {
		if top != nil && !top.Back() {
			a.back()
		}
		return nil
	}
	if editing(a.app.GetFocus()) {
		return ev
	}
	name := ""
	if top != nil {
		name = top.Name()
	}
	if a.registry.HandleEvent(name, ev) {
		return nil
	}
	return ev
}

// editing reports whether p consumes printable keys.
func editing(p tview.Primitive) bool {
	switch p.(type) {
	case *tview.InputField, *tview.TextArea, *tview.DropDown, *tview.Button, *tview.Checkbox:
		return true
	}
	return false
}

func (a *App) openPrompt(mode ui.PromptMode) {
	if a.login != nil && a.pages.Current() == a.login && mode == ui.PromptFilter {
		return
	}
	a.promptOpen = true
	a.prompt.Activate(mode)
	a.body.AddItem(a.prompt, 3, 0, true)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	if !a.promptOpen {
		return
	}
	a.promptOpen = false
	a.body.RemoveItem(a.prompt)
	a.app.SetFocus(a.pages)
}

func (a *App) execute(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.showHelp()
	case "chat":
		a.navigate(guard.RouteChat)
	case "profile":
		a.navigate(guard.RouteProfile)
	case "users":
		a.navigate(guard.RouteChat)
		a.withChat(func(cv *views.ChatView) { cv.ShowUsers(cmd.Args == "online") })
	case "photo":
		if cmd.Args == "" {
			a.vm.Flash.Warn("usage: photo <file>")
			a.refreshFlash()
			return
		}
		a.withProfile(func(pv *views.ProfileView) { pv.UploadPhoto(cmd.Args) })
	case "rmphoto":
		a.withProfile(func(pv *views.ProfileView) { pv.RemovePhoto() })
	case "logout":
		go func() { _ = a.vm.SignOut(a.ctx) }()
	default:
		a.vm.Flash.Warn("Unknown command: " + cmd.Name)
		a.refreshFlash()
	}
}

func (a *App) withChat(f func(cv *views.ChatView)) {
	if a.chat != nil && a.vm.SignedIn() {
		f(a.chat)
	}
}

func (a *App) withProfile(f func(pv *views.ProfileView)) {
	if !a.vm.SignedIn() {
		a.vm.Flash.Warn("Sign in first")
		a.refreshFlash()
		return
	}
	if a.profile == nil {
		a.profile = views.NewProfileView(a.env, model.NewProfile(a.vm))
	}
	f(a.profile)
}

// navigate resolves route through the guards off the UI goroutine, since the
// guards wait for the auth state, and then shows the resulting screen.
func (a *App) navigate(route string) {
	go func() {
		target := a.router.Resolve(a.ctx, route)
		if target == "" {
			return
		}
		a.app.QueueUpdateDraw(func() { a.show(target) })
	}()
}

// show puts the screen for route on top. The login screen and the chat screen
// are roots; the profile screen sits above the chat screen.
func (a *App) show(route string) {
	if top := a.pages.Current(); top != nil && top.Name() == route {
		return
	}
	var err error
	switch route {
	case guard.RouteLogin:
		a.chat, a.profile = nil, nil
		err = a.pages.Reset(a.ctx, a.login)
	case guard.RouteChat:
		if a.rootIs(guard.RouteChat) {
			for a.pages.Depth() > 1 {
				a.pages.Pop()
			}
			break
		}
		a.chat = views.NewChatView(a.env, model.NewChat(a.vm))
		err = a.pages.Reset(a.ctx, a.chat)
	case guard.RouteProfile:
		if !a.rootIs(guard.RouteChat) {
			a.chat = views.NewChatView(a.env, model.NewChat(a.vm))
			if err = a.pages.Reset(a.ctx, a.chat); err != nil {
				break
			}
		}
		for a.pages.Depth() > 1 {
			a.pages.Pop()
		}
		a.profile = views.NewProfileView(a.env, model.NewProfile(a.vm))
		err = a.pages.Push(a.ctx, a.profile)
	}
	if err != nil {
		a.logger.Warn("could not open screen", zap.String("route", route), zap.Error(err))
		a.vm.Flash.Err("Cannot open " + route + ": " + err.Error())
	}
	a.app.SetFocus(a.pages)
	a.refresh()
}

func (a *App) rootIs(name string) bool {
	stack := a.pages.Stack()
	return len(stack) > 0 && stack[0] == name
}

func (a *App) showHelp() {
	if top := a.pages.Current(); top == nil || top.Name() == views.HelpName {
		return
	}
	_ = a.pages.Push(a.ctx, a.help)
	a.app.SetFocus(a.pages)
}

func (a *App) back() {
	if a.pages.Pop() != nil {
		a.app.SetFocus(a.pages)
		a.refresh()
	}
}

// refresh redraws the top screen and the chrome. It runs on the UI goroutine.
func (a *App) refresh() {
	if r, ok := a.pages.Current().(views.Refresher); ok {
		r.Refresh()
	}
	a.refreshFlash()
}

func (a *App) refreshFlash() {
	a.flashBar.Update(a.vm.Flash.Current())
}

func (a *App) refreshHeader() {
	data := &ui.AccountData{
		Instance: a.vm.Instance,
		Status:   string(a.vm.Session.State()),
	}
	if id := a.vm.Session.Identity(); id != nil {
		data.User = id.FallbackName()
		data.Email = id.Email
	}
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()
	if stats, err := a.vm.Session.Backend().Stats(ctx); err == nil {
		data.Online = stats.Online
		data.Chats = stats.Chats
		data.Uptime = stats.Uptime
	}
	a.app.QueueUpdateDraw(func() {
		a.account.Update(data)
		a.crumbs.SetRoot(a.vm.Instance, data.User)
	})
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.navigate(guard.RouteChat)
	go a.watchSession()
	go a.refreshLoop()
	defer a.pages.StopAll()
	return a.app.Run()
}

// watchSession returns to the login screen whenever the user signs out.
func (a *App) watchSession() {
	s := a.vm.Session.Watch(a.ctx)
	defer s.Cancel()
	for st := range s.C() {
		a.logger.Debug("auth state", zap.String("state", string(st)))
		switch st {
		case status.SignedOut:
			a.navigate(guard.RouteLogin)
		case status.SignedIn:
			go a.refreshHeader()
		}
	}
}

func (a *App) refreshLoop() {
	flashTick := time.NewTicker(time.Second)
	statsTick := time.NewTicker(statsEvery)
	defer flashTick.Stop()
	defer statsTick.Stop()
	a.refreshHeader()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.refresh)
		case <-a.vm.Flash.Watch():
			a.app.QueueUpdateDraw(a.refreshFlash)
		case <-flashTick.C:
			a.app.QueueUpdateDraw(a.refreshFlash)
		case <-statsTick.C:
			a.refreshHeader()
		}
	}
}

// Stop shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
