package model

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/model"
)

// Chat is the view-state of the chat screen: the conversation list, the user
// directory, and the open thread with its typing indicator. Every subscription
// it opens is canceled exactly once, by Close for the thread and Stop for the
// rest.
type Chat struct {
	vm   *ViewModel
	self string

	mu         sync.Mutex
	chats      []model.Chat
	users      []model.UserProfile
	onlineOnly bool
	peer       *model.UserProfile
	peerID     string
	messages   []model.Message
	summary    *model.Chat

	// thread and dir are bumped whenever the open thread or the directory
	// subscription is replaced, so late snapshots of the old one are dropped.
	thread int
	dir    int

	chatsSub   func()
	usersSub   func()
	threadSubs []func()
	typing     *messaging.TypingNotifier
	stopped    bool
}

// NewChat creates the chat screen state for the signed-in user.
func NewChat(vm *ViewModel) *Chat {
	c := &Chat{vm: vm}
	if id := vm.Session.Identity(); id != nil {
		c.self = id.UID
	}
	return c
}

// pump applies every snapshot of s under mu and asks for a redraw.
func pump[T any](c *Chat, s *live.Stream[T], apply func(T)) func() {
	go func() {
		for v := range s.C() {
			c.mu.Lock()
			apply(v)
			c.mu.Unlock()
			c.vm.Refresh()
		}
		if err := s.Err(); err != nil {
			c.vm.Flash.Err(failed("Subscription ended", err))
			c.vm.Refresh()
		}
	}()
	return s.Cancel
}

// Start opens the conversation list and user directory subscriptions.
func (c *Chat) Start(ctx context.Context) error {
	chats, err := c.vm.Messaging.SubscribeUserChats(ctx)
	if err != nil {
		return err
	}
	users, err := c.vm.Messaging.SubscribeAllUsers(ctx)
	if err != nil {
		chats.Cancel()
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = false
	c.chatsSub = pump(c, chats, func(v []model.Chat) { c.chats = v })
	c.usersSub = c.pumpUsers(users)
	return nil
}

// ShowOnline switches the user directory between everyone and online users.
func (c *Chat) ShowOnline(ctx context.Context, onlineOnly bool) error {
	var (
		s   *live.Stream[[]model.UserProfile]
		err error
	)
	if onlineOnly {
		s, err = c.vm.Messaging.SubscribeOnlineUsers(ctx)
	} else {
		s, err = c.vm.Messaging.SubscribeAllUsers(ctx)
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		s.Cancel()
		return nil
	}
	if c.usersSub != nil {
		c.usersSub()
	}
	c.onlineOnly = onlineOnly
	c.users = nil
	c.usersSub = c.pumpUsers(s)
	return nil
}

// pumpUsers must be called with mu held.
func (c *Chat) pumpUsers(s *live.Stream[[]model.UserProfile]) func() {
	c.dir++
	g := c.dir
	return pump(c, s, func(v []model.UserProfile) {
		if c.dir == g {
			c.users = v
		}
	})
}

// OnlineOnly reports which directory is shown.
func (c *Chat) OnlineOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onlineOnly
}

// Open shows the thread with peerID, closing any thread already open.
func (c *Chat) Open(ctx context.Context, peerID string) error {
	if peerID == "" || peerID == c.self {
		return errors.New("choose another user to chat with")
	}
	c.Close()
	c.mu.Lock()
	g := c.thread
	c.mu.Unlock()

	peer, err := c.vm.Messaging.UserProfile(ctx, peerID)
	if err != nil {
		return err
	}
	msgs, err := c.vm.Messaging.SubscribeMessages(ctx, peerID)
	if err != nil {
		return err
	}
	chatID := messaging.ChatID(c.self, peerID)
	summary, err := c.vm.Messaging.SubscribeChat(ctx, chatID)
	if err != nil {
		msgs.Cancel()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A later Open, Close or Stop owns the thread now.
	if c.stopped || c.thread != g {
		msgs.Cancel()
		summary.Cancel()
		return nil
	}
	c.peerID = peerID
	c.peer = peer
	c.messages = nil
	c.summary = nil
	c.typing = c.vm.Messaging.NewTypingNotifier(chatID)
	c.threadSubs = []func(){
		pump(c, msgs, func(v []model.Message) {
			if c.thread == g {
				c.messages = v
			}
		}),
		pump(c, summary, func(v *model.Chat) {
			if c.thread == g {
				c.summary = v
			}
		}),
	}
	return nil
}

// Close closes the open thread, if any, and clears the typing indicator.
func (c *Chat) Close() {
	c.mu.Lock()
	subs := c.threadSubs
	typing := c.typing
	c.threadSubs = nil
	c.typing = nil
	c.thread++
	c.peerID = ""
	c.peer = nil
	c.messages = nil
	c.summary = nil
	c.mu.Unlock()

	for _, cancel := range subs {
		cancel()
	}
	if typing != nil {
		typing.Stop()
	}
}

// Stop cancels every subscription of the screen.
func (c *Chat) Stop() {
	c.Close()
	c.mu.Lock()
	subs := []func(){c.chatsSub, c.usersSub}
	c.chatsSub, c.usersSub = nil, nil
	c.stopped = true
	c.mu.Unlock()
	for _, cancel := range subs {
		if cancel != nil {
			cancel()
		}
	}
}

// Keystroke records composer input for the typing indicator.
func (c *Chat) Keystroke() {
	c.mu.Lock()
	typing := c.typing
	c.mu.Unlock()
	if typing != nil {
		typing.Keystroke()
	}
}

// Send sends text to the open thread. Empty input is ignored.
func (c *Chat) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	peerID, typing := c.peerID, c.typing
	c.mu.Unlock()
	if peerID == "" {
		return errors.New("no conversation open")
	}
	var mark uint64
	if typing != nil {
		mark = typing.Mark()
	}

	_, err := c.vm.Messaging.SendMessage(ctx, peerID, text)
	switch {
	case errors.Is(err, messaging.ErrEmptyMessage):
		return nil
	case errors.Is(err, messaging.ErrSummaryNotUpdated):
		c.vm.Flash.Warn("Message sent, but the conversation list was not updated")
	case err != nil:
		c.vm.Flash.Err(failed("Send failed", err))
		return err
	}
	if typing != nil {
		typing.Sent(mark)
	}
	return nil
}

// Chats returns the conversation list, most recent first.
func (c *Chat) Chats() []model.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chats
}

// Users returns the user directory.
func (c *Chat) Users() []model.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users
}

// Messages returns the open thread, oldest first.
func (c *Chat) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

// Self returns the uid of the signed-in user.
func (c *Chat) Self() string {
	return c.self
}

// PeerID returns the uid of the open thread's peer, or "".
func (c *Chat) PeerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerID
}

// Peer returns the profile of the open thread's peer. It is nil while the peer
// has no profile.
func (c *Chat) Peer() *model.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// PeerName returns the name to show for the open thread.
func (c *Chat) PeerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.peer != nil && c.peer.DisplayName != "":
		return c.peer.DisplayName
	case c.summary != nil:
		return c.summary.DisplayNameFor(c.self)
	}
	return model.UnknownUser
}

// PeerTyping reports whether the peer is typing in the open thread.
func (c *Chat) PeerTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary != nil && c.summary.PeerTyping(c.self)
}
