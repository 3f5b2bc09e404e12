package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/backend/backendtest"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/session"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T, be *backend.Backend, email, name string) (*Service, *session.Session) {
	t.Helper()
	sess := session.New(be, bus.New(), nil, nil)
	require.NoError(t, sess.Restore(context.Background()))
	_, err := sess.SignUp(context.Background(), email, "secret1", name)
	require.NoError(t, err)
	return New(sess, nil, Options{TypingIdle: 50 * time.Millisecond}), sess
}

// await returns the first snapshot satisfying ok.
func await[T any](t *testing.T, s *live.Stream[T], ok func(T) bool) T {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case v, open := <-s.C():
			if !open {
				t.Fatalf("stream closed: %v", s.Err())
			}
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestChatIDIsCommutativeAndStable(t *testing.T) {
	pairs := [][2]string{{"u1", "u2"}, {"b", "a"}, {"same", "same"}, {"", "x"}}
	for _, p := range pairs {
		require.Equal(t, ChatID(p[0], p[1]), ChatID(p[1], p[0]))
		require.Equal(t, ChatID(p[0], p[1]), ChatID(p[0], p[1]))
	}
	require.Equal(t, "private_u1_u2", ChatID("u2", "u1"))
}

func TestSendRejectsEmptyText(t *testing.T) {
	be := backendtest.New(t)
	svc, _ := signedIn(t, be, "ana@example.com", "Ana")

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(context.Background(), "someone", text)
		require.ErrorIs(t, err, ErrEmptyMessage)
	}
	st, err := be.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.Messages)
	require.Zero(t, st.Chats)
}

func TestSendWithoutSessionWritesNothing(t *testing.T) {
	be := backendtest.New(t)
	sess := session.New(be, bus.New(), nil, nil)
	require.NoError(t, sess.Restore(context.Background()))
	svc := New(sess, nil, Options{})

	_, err := svc.SendMessage(context.Background(), "u2", "hello")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.SubscribeUserChats(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	st, err := be.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.Messages)
}

func TestHelloScenario(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2"))
	alice, _ := signedIn(t, be, "a@example.com", "Alice")
	bob, _ := signedIn(t, be, "b@example.com", "Bob")

	msg, err := alice.SendMessage(context.Background(), "u2", "  hello  ")
	require.NoError(t, err)
	require.Equal(t, "private_u1_u2", msg.ChatID)
	require.Equal(t, ChatID("u1", "u2"), msg.ChatID)
	require.Equal(t, "hello", msg.Text)
	require.Equal(t, "Alice", msg.SenderName)
	require.False(t, msg.Timestamp.IsZero())

	thread, err := alice.SubscribeMessages(context.Background(), "u2")
	require.NoError(t, err)
	defer thread.Cancel()
	msgs := await(t, thread, func(m []model.Message) bool { return len(m) > 0 })
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Text)

	for _, svc := range []*Service{alice, bob} {
		chats, err := svc.SubscribeUserChats(context.Background())
		require.NoError(t, err)
		list := await(t, chats, func(c []model.Chat) bool { return len(c) > 0 })
		chats.Cancel()
		require.Len(t, list, 1)
		require.Equal(t, "hello", list[0].LastMessage)
		require.Equal(t, "u1", list[0].LastMessageSender)
		require.Equal(t, []string{"u1", "u2"}, list[0].ParticipantIDs)
		require.Equal(t, []string{"Alice", "Bob"}, list[0].ParticipantNames)
		require.NotNil(t, list[0].Typing)
		require.False(t, list[0].Typing.State)
	}
}

func TestUnknownReceiverNameFallsBack(t *testing.T) {
	be := backendtest.New(t)
	svc, _ := signedIn(t, be, "ana@example.com", "Ana")

	msg, err := svc.SendMessage(context.Background(), "ghost", "hi")
	require.NoError(t, err)

	chats, err := svc.SubscribeChat(context.Background(), msg.ChatID)
	require.NoError(t, err)
	defer chats.Cancel()
	c := await(t, chats, func(c *model.Chat) bool { return c != nil })
	require.Equal(t, []string{"Ana", model.UnknownUser}, c.ParticipantNames)
}

func TestTypingTurnsOffAfterIdle(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2"))
	alice, _ := signedIn(t, be, "a@example.com", "Alice")
	bob, _ := signedIn(t, be, "b@example.com", "Bob")
	chatID := ChatID("u1", "u2")

	_, err := alice.SendMessage(context.Background(), "u2", "hi")
	require.NoError(t, err)

	watch, err := bob.SubscribeChat(context.Background(), chatID)
	require.NoError(t, err)
	defer watch.Cancel()

	alice.typingIdle = 300 * time.Millisecond
	n := alice.NewTypingNotifier(chatID)
	defer n.Stop()
	n.Keystroke()
	await(t, watch, func(c *model.Chat) bool { return c != nil && c.PeerTyping("u2") })

	c := await(t, watch, func(c *model.Chat) bool { return c != nil && !c.PeerTyping("u2") })
	require.Equal(t, "u1", c.Typing.UserID)
	require.False(t, c.Typing.State)
}

func TestTypingStopClearsIndicator(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2"))
	alice, _ := signedIn(t, be, "a@example.com", "Alice")
	alice.typingIdle = time.Hour
	chatID := ChatID("u1", "u2")

	n := alice.NewTypingNotifier(chatID)
	n.Keystroke()
	n.Keystroke()
	n.Stop()
	n.Stop()
	n.Keystroke()
	<-n.Done()

	_, ctx, err := alice.actor(context.Background())
	require.NoError(t, err)
	c, err := be.GetChat(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, c.Typing)
	require.False(t, c.Typing.State)
}

// stalledChats blocks every chat merge until release is closed.
type stalledChats struct {
	backend.Service
	release chan struct{}
}

func (s *stalledChats) MergeChat(ctx context.Context, id string, p model.ChatPatch) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Service.MergeChat(ctx, id, p)
}

func TestTypingNeverBlocksOnStalledBackend(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2"))
	stalled := &stalledChats{Service: be, release: make(chan struct{})}
	sess := session.New(stalled, bus.New(), nil, nil)
	require.NoError(t, sess.Restore(context.Background()))
	_, err := sess.SignUp(context.Background(), "a@example.com", "secret1", "Alice")
	require.NoError(t, err)
	svc := New(sess, nil, Options{TypingIdle: time.Millisecond})
	chatID := ChatID("u1", "u2")

	n := svc.NewTypingNotifier(chatID)
	returned := make(chan struct{})
	go func() {
		defer close(returned)
		for i := 0; i < 50; i++ {
			n.Keystroke()
			time.Sleep(2 * time.Millisecond)
		}
		n.Sent(n.Mark())
		n.Stop()
	}()
	select {
	case <-returned:
	case <-time.After(3 * time.Second):
		t.Fatal("notifier blocked on a stalled backend")
	}

	close(stalled.release)
	<-n.Done()
	_, ctx, err := svc.actor(context.Background())
	require.NoError(t, err)
	c, err := be.GetChat(ctx, chatID)
	require.NoError(t, err)
	require.False(t, c.Typing.State)
}

func TestSentTurnsTypingOff(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2"))
	alice, _ := signedIn(t, be, "a@example.com", "Alice")
	alice.typingIdle = time.Hour
	chatID := ChatID("u1", "u2")
	_, ctx, err := alice.actor(context.Background())
	require.NoError(t, err)
	typing := func() bool {
		c, err := be.GetChat(ctx, chatID)
		return err == nil && c.Typing != nil && c.Typing.State
	}

	n := alice.NewTypingNotifier(chatID)
	defer n.Stop()
	n.Keystroke()
	require.Eventually(t, typing, 3*time.Second, 10*time.Millisecond)

	mark := n.Mark()
	_, err = alice.SendMessage(context.Background(), "u2", "hi")
	require.NoError(t, err)
	n.Sent(mark)
	require.Eventually(t, func() bool { return !typing() }, 3*time.Second, 10*time.Millisecond)

	// Typing that resumes while a send is in flight survives the send.
	n.Keystroke()
	mark = n.Mark()
	n.Keystroke()
	_, err = alice.SendMessage(context.Background(), "u2", "again")
	require.NoError(t, err)
	n.Sent(mark)
	require.Eventually(t, typing, 3*time.Second, 10*time.Millisecond)
}

func TestSubscribeUsersExcludesSelf(t *testing.T) {
	be := backendtest.New(t, backendtest.WithUIDs("u1", "u2", "u3"))
	alice, _ := signedIn(t, be, "a@example.com", "Alice")
	_, _ = signedIn(t, be, "b@example.com", "Bob")
	_, carol := signedIn(t, be, "c@example.com", "Carol")
	require.NoError(t, carol.SignOut(context.Background()))

	all, err := alice.SubscribeAllUsers(context.Background())
	require.NoError(t, err)
	defer all.Cancel()
	users := await(t, all, func(u []model.UserProfile) bool { return len(u) == 2 })
	require.Equal(t, "u2", users[0].UID)
	require.Equal(t, "u3", users[1].UID)

	online, err := alice.SubscribeOnlineUsers(context.Background())
	require.NoError(t, err)
	users = await(t, online, func(u []model.UserProfile) bool { return len(u) > 0 })
	require.Len(t, users, 1)
	require.Equal(t, "u2", users[0].UID)

	online.Cancel()
	online.Cancel()
	<-online.Done()
}

func TestUserProfileMissingIsNil(t *testing.T) {
	be := backendtest.New(t)
	svc, _ := signedIn(t, be, "ana@example.com", "Ana")

	p, err := svc.UserProfile(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, p)
}
