package model

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/backend/backendtest"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/form"
	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/profile"
	"github.com/matheus3301/parley/internal/session"
	"github.com/stretchr/testify/require"
)

func newVM(t *testing.T, be *backend.Backend) *ViewModel {
	t.Helper()
	sess := session.New(be, bus.New(), nil, nil)
	require.NoError(t, sess.Restore(context.Background()))
	msg := messaging.New(sess, nil, messaging.Options{TypingIdle: 300 * time.Millisecond})
	return NewViewModel("test", sess, msg, profile.New(sess, nil))
}

func signedInVM(t *testing.T, be *backend.Backend, email, name string) *ViewModel {
	t.Helper()
	vm := newVM(t, be)
	l := NewLogin(vm)
	l.Toggle()
	require.True(t, l.Submit(context.Background(), email, "secret1", name), l.Error())
	return vm
}

// eventually polls cond until it holds.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond)
}

func TestFlashExpires(t *testing.T) {
	f := NewFlash()
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	require.Nil(t, f.Current())
	f.Info("hello")
	require.Equal(t, "hello", f.Get())
	require.Equal(t, FlashInfo, f.Current().Level)

	msg := <-f.Watch()
	require.Equal(t, "hello", msg.Text)

	now = now.Add(6 * time.Second)
	require.Empty(t, f.Get())

	f.Err("boom")
	require.Equal(t, FlashErr, f.Current().Level)
}

func TestLoginClientSideChecks(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	l := NewLogin(vm)

	require.False(t, l.Submit(context.Background(), "", "", ""))
	require.Equal(t, "Please fill in email and password", l.Error())

	l.Toggle()
	require.Empty(t, l.Error())
	require.True(t, l.Registering())
	require.False(t, l.Submit(context.Background(), "a@example.com", "", ""))
	require.Equal(t, "Please fill in all fields", l.Error())
	require.False(t, l.Submit(context.Background(), "a@example.com", "abc", ""))
	require.Equal(t, "Password must be at least 6 characters", l.Error())
	require.False(t, vm.SignedIn())
}

func TestLoginTranslatesAuthErrors(t *testing.T) {
	be := backendtest.New(t)
	signedInVM(t, be, "alice@example.com", "Alice")

	vm := newVM(t, be)
	l := NewLogin(vm)
	require.False(t, l.Submit(context.Background(), "alice@example.com", "wrong-pass", ""))
	require.Equal(t, "Incorrect password. Please try again.", l.Error())
	require.Equal(t, l.Error(), vm.Flash.Get())

	require.False(t, l.Submit(context.Background(), "nobody@example.com", "secret1", ""))
	require.Equal(t, "No account found with this email.", l.Error())

	l.Toggle()
	require.False(t, l.Submit(context.Background(), "alice@example.com", "secret1", ""))
	require.Equal(t, "This email is already registered. Please login instead.", l.Error())
}

func TestLoginSucceeds(t *testing.T) {
	vm := signedInVM(t, backendtest.New(t), "alice@example.com", "Alice")
	require.True(t, vm.SignedIn())
	require.Equal(t, "Logged in successfully", vm.Flash.Get())

	require.NoError(t, vm.SignOut(context.Background()))
	require.False(t, vm.SignedIn())
}

func TestRouterAppliesGuards(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	r := NewRouter(vm.Session.Machine())
	ctx := context.Background()

	require.Equal(t, guard.RouteLogin, r.Resolve(ctx, guard.RouteChat))
	require.Equal(t, guard.RouteLogin, r.Resolve(ctx, ""))
	require.Equal(t, guard.RouteLogin, r.Resolve(ctx, guard.RouteLogin))
	require.Empty(t, r.Resolve(ctx, "nowhere"))

	l := NewLogin(vm)
	l.Toggle()
	require.True(t, l.Submit(ctx, "alice@example.com", "secret1", "Alice"))

	require.Equal(t, guard.RouteProfile, r.Resolve(ctx, guard.RouteLogin))
	require.Equal(t, guard.RouteProfile, r.Resolve(ctx, ""))
	require.Equal(t, guard.RouteProfile, r.Current())
}

func TestChatScreenFlow(t *testing.T) {
	be := backendtest.New(t)
	alice := signedInVM(t, be, "alice@example.com", "Alice")
	bob := signedInVM(t, be, "bob@example.com", "Bob")
	ctx := context.Background()

	ac := NewChat(alice)
	require.NoError(t, ac.Start(ctx))
	defer ac.Stop()
	bc := NewChat(bob)
	require.NoError(t, bc.Start(ctx))
	defer bc.Stop()

	eventually(t, func() bool { return len(ac.Users()) == 1 })
	require.Equal(t, "Bob", ac.Users()[0].DisplayName)
	bobID := bc.Self()

	require.Error(t, ac.Open(ctx, ac.Self()))
	require.NoError(t, ac.Open(ctx, bobID))
	require.Equal(t, "Bob", ac.PeerName())
	require.NoError(t, bc.Open(ctx, ac.Self()))

	ac.Keystroke()
	eventually(t, bc.PeerTyping)

	require.NoError(t, ac.Send(ctx, "  hello  "))
	eventually(t, func() bool {
		msgs := bc.Messages()
		return len(msgs) == 1 && msgs[0].Text == "hello"
	})
	eventually(t, func() bool { return !bc.PeerTyping() })
	eventually(t, func() bool {
		chats := bc.Chats()
		return len(chats) == 1 && chats[0].LastMessage == "hello"
	})
	require.Equal(t, "Alice", bc.Chats()[0].DisplayNameFor(bc.Self()))

	require.NoError(t, ac.Send(ctx, "   "))
	eventually(t, func() bool { return len(ac.Messages()) == 1 })

	ac.Close()
	require.Empty(t, ac.PeerID())
	require.Nil(t, ac.Messages())
	require.Error(t, ac.Send(ctx, "nobody listening"))
}

func TestChatOnlineDirectory(t *testing.T) {
	be := backendtest.New(t)
	alice := signedInVM(t, be, "alice@example.com", "Alice")
	bob := signedInVM(t, be, "bob@example.com", "Bob")
	ctx := context.Background()

	ac := NewChat(alice)
	require.NoError(t, ac.Start(ctx))
	defer ac.Stop()

	require.NoError(t, ac.ShowOnline(ctx, true))
	require.True(t, ac.OnlineOnly())
	eventually(t, func() bool { return len(ac.Users()) == 1 })

	require.NoError(t, bob.SignOut(ctx))
	eventually(t, func() bool { return len(ac.Users()) == 0 })

	require.NoError(t, ac.ShowOnline(ctx, false))
	eventually(t, func() bool { return len(ac.Users()) == 1 })
	require.False(t, ac.Users()[0].IsOnline)
}

func TestChatStopReleasesSubscriptions(t *testing.T) {
	be := backendtest.New(t)
	alice := signedInVM(t, be, "alice@example.com", "Alice")
	bob := signedInVM(t, be, "bob@example.com", "Bob")
	ctx := context.Background()
	subscriptions := func() int {
		st, err := be.Stats(ctx)
		require.NoError(t, err)
		return st.Subscriptions
	}
	before := subscriptions()

	ac := NewChat(alice)
	require.NoError(t, ac.Start(ctx))
	require.NoError(t, ac.Open(ctx, bob.Session.Identity().UID))
	eventually(t, func() bool { return subscriptions() == before+4 })

	ac.Stop()
	ac.Stop()
	eventually(t, func() bool { return subscriptions() == before })
}

func TestChatOpenRacesReleaseSubscriptions(t *testing.T) {
	be := backendtest.New(t)
	alice := signedInVM(t, be, "alice@example.com", "Alice")
	bob := signedInVM(t, be, "bob@example.com", "Bob")
	carol := signedInVM(t, be, "carol@example.com", "Carol")
	ctx := context.Background()
	subscriptions := func() int {
		st, err := be.Stats(ctx)
		require.NoError(t, err)
		return st.Subscriptions
	}
	before := subscriptions()

	ac := NewChat(alice)
	require.NoError(t, ac.Start(ctx))
	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, peer := range []*ViewModel{bob, carol} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- ac.Open(ctx, peer.Session.Identity().UID)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		eventually(t, func() bool { return subscriptions() == before+4 })
	}

	ac.Stop()
	require.NoError(t, ac.Open(ctx, bob.Session.Identity().UID))
	require.Empty(t, ac.PeerID())
	eventually(t, func() bool { return subscriptions() == before })
}

func TestProfileScreen(t *testing.T) {
	vm := signedInVM(t, backendtest.New(t), "alice@example.com", "Alice")
	ctx := context.Background()

	p := NewProfile(vm)
	require.NoError(t, p.Start(ctx))
	defer p.Stop()
	eventually(t, p.Loaded)
	require.Equal(t, "A", p.Initials())
	require.Equal(t, "parley://user/"+vm.Session.Identity().UID, p.ShareLink())

	f := p.Form()
	require.Equal(t, "Alice", f.DisplayName)
	f.DisplayName = "A"
	require.Error(t, p.Save(ctx, f))
	require.Equal(t, "Display name must be at least 2 characters", vm.Flash.Get())

	f.DisplayName = "Alicia"
	f.Bio = "hi there"
	f.Status = model.StatusAway
	require.NoError(t, p.Save(ctx, f))
	require.Equal(t, "Profile updated successfully", vm.Flash.Get())
	eventually(t, func() bool {
		cur := p.Current()
		return cur != nil && cur.DisplayName == "Alicia" && cur.Status == model.StatusAway
	})
	require.Equal(t, "Alicia", vm.Session.Identity().DisplayName)

	require.Error(t, p.ChangePassword(ctx, form.Password{Current: "secret1", New: "secret2", Confirm: "secret3"}))
	require.Equal(t, "Passwords do not match", vm.Flash.Get())

	require.Error(t, p.ChangePassword(ctx, form.Password{Current: "nope-nope", New: "secret2", Confirm: "secret2"}))
	require.Equal(t, "Failed to change password: Current password is incorrect.", vm.Flash.Get())

	require.NoError(t, p.ChangePassword(ctx, form.Password{Current: "secret1", New: "secret2", Confirm: "secret2"}))
	require.Equal(t, "Password changed successfully", vm.Flash.Get())

	require.NoError(t, p.ChangeEmail(ctx, form.Email{NewEmail: "alicia@example.com", Password: "secret2"}))
	require.Equal(t, "Email changed successfully", vm.Flash.Get())
	eventually(t, func() bool {
		cur := p.Current()
		return cur != nil && cur.Email == "alicia@example.com"
	})
}

func TestProfilePhotoFromFile(t *testing.T) {
	vm := signedInVM(t, backendtest.New(t), "alice@example.com", "Alice")
	ctx := context.Background()
	p := NewProfile(vm)

	require.Error(t, p.UploadPhoto(ctx, filepath.Join(t.TempDir(), "missing.png")))
	require.Contains(t, vm.Flash.Get(), "Failed to upload photo")

	require.NoError(t, p.RemovePhoto(ctx))
}
