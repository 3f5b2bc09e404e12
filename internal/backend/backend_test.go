package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/blob"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/store"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fixture struct {
	be    *Backend
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blob.NewLocal(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	f := &fixture{clock: time.Now()}
	f.be = New(db, bus.New(), Options{
		Tokens: authn.NewTokens("test-secret", time.Hour),
		Blobs:  blobs,
		Now:    func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) signUp(t *testing.T, email, name string) (context.Context, string) {
	t.Helper()
	res, err := f.be.SignUp(context.Background(), email, "secret1", name)
	require.NoError(t, err)
	return authn.WithToken(context.Background(), res.Token), res.Identity.UID
}

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.be.SignUp(ctx, " Ana@Example.com ", "secret1", "Ana")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "ana@example.com", res.Identity.Email)
	require.Equal(t, "Ana", res.Identity.DisplayName)

	_, err = f.be.SignUp(ctx, "ana@example.com", "secret1", "Other")
	require.Equal(t, authn.CodeEmailInUse, authn.CodeOf(err))

	_, err = f.be.SignUp(ctx, "bob@example.com", "123", "Bob")
	require.Equal(t, authn.CodeWeakPassword, authn.CodeOf(err))

	_, err = f.be.SignUp(ctx, "not-an-email", "secret1", "Bob")
	require.Equal(t, authn.CodeInvalidEmail, authn.CodeOf(err))

	in, err := f.be.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, res.Identity.UID, in.Identity.UID)

	_, err = f.be.SignIn(ctx, "ana@example.com", "wrong-password")
	require.Equal(t, authn.CodeWrongPassword, authn.CodeOf(err))

	_, err = f.be.SignIn(ctx, "nobody@example.com", "secret1")
	require.Equal(t, authn.CodeUserNotFound, authn.CodeOf(err))
}

func TestSignInRateLimited(t *testing.T) {
	f := newFixture(t)
	f.be.limiter = authn.NewLimiter(1, 2)
	t.Cleanup(f.be.limiter.Stop)
	f.signUp(t, "ana@example.com", "Ana")

	for i := 0; i < 2; i++ {
		_, err := f.be.SignIn(context.Background(), "ana@example.com", "bad-password")
		require.Equal(t, authn.CodeWrongPassword, authn.CodeOf(err))
	}
	_, err := f.be.SignIn(context.Background(), "ana@example.com", "secret1")
	require.Equal(t, authn.CodeTooManyRequests, authn.CodeOf(err))
}

func TestCallsWithoutTokenAreRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.be.Me(context.Background())
	require.Equal(t, authn.CodeUnauthenticated, authn.CodeOf(err))

	_, err = f.be.GetUser(authn.WithToken(context.Background(), "garbage"), "u1")
	require.Equal(t, authn.CodeUnauthenticated, authn.CodeOf(err))

	_, err = f.be.Stats(context.Background())
	require.NoError(t, err)
}

func TestSensitiveUpdatesRequireRecentLogin(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.signUp(t, "ana@example.com", "Ana")

	f.clock = f.clock.Add(10 * time.Minute)
	err := f.be.UpdatePassword(ctx, "newsecret")
	require.Equal(t, authn.CodeRequiresRecentLogin, authn.CodeOf(err))
	err = f.be.UpdateEmail(ctx, "ana2@example.com")
	require.Equal(t, authn.CodeRequiresRecentLogin, authn.CodeOf(err))

	_, err = f.be.Reauthenticate(ctx, "nope-nope")
	require.Equal(t, authn.CodeWrongPassword, authn.CodeOf(err))

	res, err := f.be.Reauthenticate(ctx, "secret1")
	require.NoError(t, err)
	ctx = authn.WithToken(context.Background(), res.Token)

	require.Equal(t, authn.CodeWeakPassword, authn.CodeOf(f.be.UpdatePassword(ctx, "abc")))
	require.NoError(t, f.be.UpdatePassword(ctx, "newsecret"))
	require.NoError(t, f.be.UpdateEmail(ctx, "ana2@example.com"))

	_, err = f.be.SignIn(context.Background(), "ana2@example.com", "newsecret")
	require.NoError(t, err)
}

func TestUpdateEmailInUse(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "bob@example.com", "Bob")
	ctx, _ := f.signUp(t, "ana@example.com", "Ana")

	err := f.be.UpdateEmail(ctx, "bob@example.com")
	require.Equal(t, authn.CodeEmailInUse, authn.CodeOf(err))
}

func TestUpdateIdentity(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.signUp(t, "ana@example.com", "Ana")

	require.NoError(t, f.be.UpdateIdentity(ctx, model.Ptr("Ana B"), nil))
	id, err := f.be.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ana B", id.DisplayName)
	require.Empty(t, id.PhotoURL)
}

func TestProfilesAreWritableOnlyByOwner(t *testing.T) {
	f := newFixture(t)
	ctx, uid := f.signUp(t, "ana@example.com", "Ana")
	bobCtx, bob := f.signUp(t, "bob@example.com", "Bob")

	p := &model.UserProfile{UID: uid, Email: "ana@example.com", DisplayName: "Ana", Status: model.StatusOnline, IsOnline: true}
	created, err := f.be.CreateUser(ctx, p)
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.be.CreateUser(ctx, &model.UserProfile{UID: uid, DisplayName: "Overwritten"})
	require.NoError(t, err)
	require.False(t, created)

	got, err := f.be.GetUser(bobCtx, uid)
	require.NoError(t, err)
	require.Equal(t, "Ana", got.DisplayName)

	err = f.be.UpdateUser(bobCtx, uid, model.UserPatch{Bio: model.Ptr("hacked")})
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = f.be.UpdateUser(bobCtx, bob, model.UserPatch{Bio: model.Ptr("hi")})
	require.ErrorIs(t, err, ErrNotFound)

	err = f.be.UpdateUser(ctx, uid, model.UserPatch{Status: model.Ptr(model.Status("sleeping"))})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.be.GetUser(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWatchUserSeesUpdates(t *testing.T) {
	f := newFixture(t)
	ctx, uid := f.signUp(t, "ana@example.com", "Ana")

	s, err := f.be.WatchUser(ctx, uid)
	require.NoError(t, err)
	defer s.Cancel()

	first := <-s.C()
	require.Nil(t, first)

	_, err = f.be.CreateUser(ctx, &model.UserProfile{UID: uid, DisplayName: "Ana", Status: model.StatusOffline})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case u := <-s.C():
			return u != nil && u.DisplayName == "Ana"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatMembership(t *testing.T) {
	f := newFixture(t)
	anaCtx, ana := f.signUp(t, "ana@example.com", "Ana")
	bobCtx, bob := f.signUp(t, "bob@example.com", "Bob")
	eveCtx, eve := f.signUp(t, "eve@example.com", "Eve")
	chatID := "c1"

	err := f.be.MergeChat(eveCtx, chatID, model.ChatPatch{ParticipantIDs: []string{ana, bob}})
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = f.be.MergeChat(anaCtx, chatID, model.ChatPatch{
		ParticipantIDs:   []string{ana, bob},
		ParticipantNames: []string{"Ana", "Bob"},
	})
	require.NoError(t, err)

	err = f.be.MergeChat(eveCtx, chatID, model.ChatPatch{LastMessage: model.Ptr("spam")})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.GetChat(eveCtx, chatID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.WatchMessages(eveCtx, chatID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.WatchUserChats(bobCtx, ana)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.AddMessage(eveCtx, &model.Message{ChatID: chatID, SenderID: eve, Text: "hi"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.AddMessage(bobCtx, &model.Message{ChatID: chatID, SenderID: ana, Text: "spoof"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	c, err := f.be.GetChat(bobCtx, chatID)
	require.NoError(t, err)
	require.Equal(t, []string{ana, bob}, c.ParticipantIDs)
}

func TestTypingMergeCreatesBareChat(t *testing.T) {
	f := newFixture(t)
	ctx, uid := f.signUp(t, "ana@example.com", "Ana")

	require.NoError(t, f.be.MergeChat(ctx, "bare", model.ChatPatch{Typing: &model.Typing{UserID: uid, State: true}}))
	c, err := f.be.GetChat(ctx, "bare")
	require.NoError(t, err)
	require.Empty(t, c.ParticipantIDs)
	require.NotNil(t, c.Typing)
	require.True(t, c.Typing.State)
}

func TestPrivateChatIDNamesItsPair(t *testing.T) {
	f := newFixture(t)
	anaCtx, ana := f.signUp(t, "ana@example.com", "Ana")
	_, bob := f.signUp(t, "bob@example.com", "Bob")
	eveCtx, eve := f.signUp(t, "eve@example.com", "Eve")
	chatID := model.PrivateChatID(ana, bob)

	// A typing-only merge leaves the chat without participants.
	require.NoError(t, f.be.MergeChat(anaCtx, chatID, model.ChatPatch{Typing: &model.Typing{UserID: ana, State: true}}))

	err := f.be.MergeChat(eveCtx, chatID, model.ChatPatch{ParticipantIDs: []string{eve, ana}})
	require.ErrorIs(t, err, ErrPermissionDenied)
	err = f.be.MergeChat(eveCtx, chatID, model.ChatPatch{Typing: &model.Typing{UserID: eve, State: true}})
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.be.GetChat(eveCtx, chatID)
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.be.WatchChat(eveCtx, chatID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = f.be.MergeChat(anaCtx, chatID, model.ChatPatch{ParticipantIDs: []string{ana, eve}})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.AddMessage(eveCtx, &model.Message{ChatID: model.PrivateChatID(eve, bob), SenderID: eve, ReceiverID: ana, Text: "misrouted"})
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.be.AddMessage(anaCtx, &model.Message{ChatID: "c1", SenderID: ana, ReceiverID: bob, Text: "off the pair"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.be.AddMessage(anaCtx, &model.Message{ChatID: chatID, SenderID: ana, ReceiverID: bob, Text: "hi"})
	require.NoError(t, err)
}

func TestAddMessageAssignsIDAndTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx, ana := f.signUp(t, "ana@example.com", "Ana")
	_, bob := f.signUp(t, "bob@example.com", "Bob")
	chatID := model.PrivateChatID(ana, bob)
	require.NoError(t, f.be.MergeChat(ctx, chatID, model.ChatPatch{ParticipantIDs: []string{ana, bob}}))

	s, err := f.be.WatchMessages(ctx, chatID)
	require.NoError(t, err)
	defer s.Cancel()
	require.Empty(t, <-s.C())

	m, err := f.be.AddMessage(ctx, &model.Message{ChatID: chatID, SenderID: ana, ReceiverID: bob, Text: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, model.MessagePrivate, m.Type)
	require.Equal(t, f.clock.UnixMilli(), m.Timestamp.UnixMilli())

	select {
	case msgs := <-s.C():
		require.Len(t, msgs, 1)
		require.Equal(t, "hello", msgs[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after AddMessage")
	}

	st, err := f.be.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, st.Messages)
	require.Equal(t, 1, st.Chats)
}

func TestWatchUserChatsFollowsAnyChatChange(t *testing.T) {
	f := newFixture(t)
	ctx, ana := f.signUp(t, "ana@example.com", "Ana")
	bobCtx, bob := f.signUp(t, "bob@example.com", "Bob")

	s, err := f.be.WatchUserChats(bobCtx, bob)
	require.NoError(t, err)
	defer s.Cancel()
	require.Empty(t, <-s.C())

	require.NoError(t, f.be.MergeChat(ctx, "c1", model.ChatPatch{
		ParticipantIDs: []string{ana, bob},
		LastMessage:    model.Ptr("hello"),
	}))

	select {
	case chats := <-s.C():
		require.Len(t, chats, 1)
		require.Equal(t, "hello", chats[0].LastMessage)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after MergeChat")
	}
}

func TestWatchCancelReleasesSubscription(t *testing.T) {
	f := newFixture(t)
	ctx, uid := f.signUp(t, "ana@example.com", "Ana")

	s, err := f.be.WatchUserChats(ctx, uid)
	require.NoError(t, err)
	<-s.C()
	require.Equal(t, 1, f.be.bus.Subscribers())

	s.Cancel()
	s.Cancel()
	<-s.Done()
	require.Equal(t, 0, f.be.bus.Subscribers())
}

func TestObjects(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.signUp(t, "ana@example.com", "Ana")
	bobCtx, _ := f.signUp(t, "bob@example.com", "Bob")

	_, err := f.be.PutObject(ctx, "notes.txt", []byte("plain text"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	f.be.maxObjectBytes = 8
	_, err = f.be.PutObject(ctx, "big.png", pngHeader)
	require.ErrorIs(t, err, ErrInvalidArgument)
	f.be.maxObjectBytes = 1 << 20

	o, err := f.be.PutObject(ctx, "me.png", pngHeader)
	require.NoError(t, err)
	require.Equal(t, "image/png", o.ContentType)
	require.NotEmpty(t, o.URL)

	require.ErrorIs(t, f.be.DeleteObject(bobCtx, o.URL), ErrPermissionDenied)
	require.NoError(t, f.be.DeleteObject(ctx, o.URL))

	err = f.be.DeleteObject(ctx, o.URL)
	require.True(t, errors.Is(err, ErrNotFound))
}
