package views

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/tui/keys"
	tuimodel "github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

const (
	tabChats = "chats"
	tabUsers = "users"
)

// ChatView is the chat screen: the conversation list or user directory on the
// left and the open thread on the right.
type ChatView struct {
	*tview.Flex
	env   *Env
	state *tuimodel.Chat

	lists   *tview.Pages
	convos  *ConversationList
	users   *UserList
	thread  *MessageThread
	details *PeerInfo
	right   *tview.Flex

	tab         string
	showDetails bool
	openPeer    string
	ctx         context.Context
	actions     []*keys.Action
}

// NewChatView creates the chat screen over state.
func NewChatView(env *Env, state *tuimodel.Chat) *ChatView {
	cv := &ChatView{
		env:     env,
		state:   state,
		lists:   tview.NewPages(),
		convos:  NewConversationList(env.Theme),
		users:   NewUserList(env.Theme),
		thread:  NewMessageThread(env.Theme),
		details: NewPeerInfo(env.Theme),
		tab:     tabChats,
		ctx:     context.Background(),
	}

	cv.lists.AddPage(tabChats, cv.convos, true, true)
	cv.lists.AddPage(tabUsers, cv.users, true, false)

	cv.right = tview.NewFlex().AddItem(cv.thread, 0, 1, false)

	cv.Flex = tview.NewFlex().
		AddItem(cv.lists, 0, 2, true).
		AddItem(cv.right, 0, 3, false)

	cv.convos.SetSelectedFunc(func(row, _ int) {
		cv.open(cv.convos.PeerByIndex(row))
	})
	cv.users.SetSelectedFunc(func(int, int) {
		cv.open(cv.users.Selected())
	})
	cv.thread.SetOnKeystroke(state.Keystroke)
	cv.thread.SetOnSend(func(text string) {
		env.background(func(ctx context.Context) {
			_ = state.Send(ctx, text)
		})
	})

	cv.actions = []*keys.Action{
		{Key: tcell.KeyTab, Label: "Tab", Description: "Chats/Users", Visible: true, Handler: cv.toggleTab},
		{Key: tcell.KeyRune, Rune: 'o', Description: "Online only", Visible: true, Handler: cv.toggleOnline},
		{Key: tcell.KeyRune, Rune: 'i', Description: "Compose", Visible: true, Handler: cv.compose},
		{Key: tcell.KeyRune, Rune: 'd', Description: "Details", Visible: true, Handler: cv.toggleDetails},
		{Key: tcell.KeyRune, Rune: 'x', Description: "Close chat", Visible: true, Handler: cv.closeThread},
		{Key: tcell.KeyRune, Rune: 'p', Description: "Profile", Visible: true, Handler: func() { env.Navigate(guard.RouteProfile) }},
		{Key: tcell.KeyRune, Rune: 'j', Handler: func() { cv.move(1) }},
		{Key: tcell.KeyRune, Rune: 'k', Handler: func() { cv.move(-1) }},
	}
	for n := '1'; n <= '9'; n++ {
		idx := int(n - '0')
		cv.actions = append(cv.actions, &keys.Action{
			Key: tcell.KeyRune, Rune: n,
			Handler: func() { cv.open(cv.convos.PeerByIndex(idx)) },
		})
	}
	return cv
}

// Name implements Component.
func (cv *ChatView) Name() string { return guard.RouteChat }

// Start implements Component.
func (cv *ChatView) Start(ctx context.Context) error {
	cv.ctx = ctx
	return cv.state.Start(ctx)
}

// Stop implements Component.
func (cv *ChatView) Stop() {
	cv.state.Stop()
}

// Hints implements Component.
func (cv *ChatView) Hints() []ui.MenuHint {
	return hints(cv.actions)
}

// Actions implements Screen.
func (cv *ChatView) Actions() []*keys.Action {
	return cv.actions
}

// Back leaves the composer, then the thread.
func (cv *ChatView) Back() bool {
	switch cv.env.focused() {
	case cv.thread.Composer():
		cv.env.SetFocus(cv.thread.Messages())
		return true
	case cv.thread.Messages():
		cv.focusList()
		return true
	}
	return false
}

// SetFilter implements Filterable for the visible list.
func (cv *ChatView) SetFilter(filter string) {
	cv.convos.SetFilter(filter)
	cv.users.SetFilter(filter)
}

// Refresh redraws from the view-state.
func (cv *ChatView) Refresh() {
	self := cv.state.Self()
	cv.convos.Update(self, cv.state.Chats())
	cv.users.Update(cv.state.Users(), cv.state.OnlineOnly())

	peerID := cv.state.PeerID()
	if peerID == "" {
		if cv.openPeer != "" {
			cv.openPeer = ""
			cv.thread.Reset("")
			cv.details.Clear()
		}
		return
	}
	name := cv.state.PeerName()
	if peerID != cv.openPeer {
		cv.openPeer = peerID
		cv.thread.Reset(name)
	}
	cv.thread.Update(self, name, cv.state.Messages(), cv.state.PeerTyping())
	cv.details.Update(peerID, cv.state.Peer())
}

func (cv *ChatView) open(peerID string) {
	if peerID == "" {
		return
	}
	cv.env.background(func(context.Context) {
		if err := cv.state.Open(cv.ctx, peerID); err != nil {
			cv.env.VM.Flash.Err("Cannot open chat: " + err.Error())
			cv.env.VM.Refresh()
			return
		}
		cv.env.Queue(func() {
			cv.Refresh()
			cv.env.SetFocus(cv.thread.Composer())
		})
	})
}

func (cv *ChatView) closeThread() {
	cv.state.Close()
	cv.Refresh()
	cv.focusList()
}

func (cv *ChatView) compose() {
	if cv.state.PeerID() == "" {
		cv.env.VM.Flash.Warn("Open a conversation first")
		cv.env.VM.Refresh()
		return
	}
	cv.env.SetFocus(cv.thread.Composer())
}

func (cv *ChatView) toggleTab() {
	if cv.tab == tabChats {
		cv.tab = tabUsers
	} else {
		cv.tab = tabChats
	}
	cv.lists.SwitchToPage(cv.tab)
	cv.focusList()
}

func (cv *ChatView) toggleOnline() {
	cv.ShowUsers(!cv.state.OnlineOnly())
}

// ShowUsers switches to the user directory, listing only online users when
// online is set.
func (cv *ChatView) ShowUsers(online bool) {
	if cv.tab != tabUsers {
		cv.toggleTab()
	}
	cv.env.background(func(context.Context) {
		if err := cv.state.ShowOnline(cv.ctx, online); err != nil {
			cv.env.VM.Flash.Err("Error loading users: " + err.Error())
		}
		cv.env.VM.Refresh()
	})
}

func (cv *ChatView) toggleDetails() {
	cv.showDetails = !cv.showDetails
	cv.right.RemoveItem(cv.details)
	if cv.showDetails {
		cv.right.AddItem(cv.details, 0, 1, false)
	}
}

func (cv *ChatView) move(step int) {
	var table *tview.Table
	if cv.tab == tabChats {
		table = cv.convos.Table
	} else {
		table = cv.users.Table
	}
	row, _ := table.GetSelection()
	if next := row + step; next >= 1 && next < table.GetRowCount() {
		table.Select(next, 0)
	}
}

func (cv *ChatView) focusList() {
	if cv.tab == tabChats {
		cv.env.SetFocus(cv.convos)
	} else {
		cv.env.SetFocus(cv.users)
	}
}

// Focus implements tview.Primitive.
func (cv *ChatView) Focus(delegate func(p tview.Primitive)) {
	if cv.tab == tabChats {
		delegate(cv.convos)
	} else {
		delegate(cv.users)
	}
}
