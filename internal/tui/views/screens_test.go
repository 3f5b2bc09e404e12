package views

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/backend/backendtest"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/guard"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/profile"
	"github.com/matheus3301/parley/internal/session"
	tuimodel "github.com/matheus3301/parley/internal/tui/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// harness runs queued UI work under a lock the test also takes, standing in
// for the tview event loop.
type harness struct {
	mu     sync.Mutex
	routes chan string
	env    *Env
}

func newHarness(t *testing.T, vm *tuimodel.ViewModel) *harness {
	t.Helper()
	h := &harness{routes: make(chan string, 8)}
	h.env = &Env{
		Theme: ui.DefaultTheme(),
		VM:    vm,
		Queue: func(f func()) {
			h.mu.Lock()
			defer h.mu.Unlock()
			f()
		},
		Navigate: func(route string) { h.routes <- route },
		SetFocus: func(tview.Primitive) {},
		Focused:  func() tview.Primitive { return nil },
	}
	return h
}

func (h *harness) locked(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f()
}

func newVM(t *testing.T, be *backend.Backend) *tuimodel.ViewModel {
	t.Helper()
	sess := session.New(be, bus.New(), nil, nil)
	require.NoError(t, sess.Restore(context.Background()))
	msg := messaging.New(sess, nil, messaging.Options{TypingIdle: 200 * time.Millisecond})
	return tuimodel.NewViewModel("test", sess, msg, profile.New(sess, nil))
}

func signUp(t *testing.T, vm *tuimodel.ViewModel, email, name string) {
	t.Helper()
	_, err := vm.Session.SignUp(context.Background(), email, "secret1", name)
	require.NoError(t, err)
}

func inputText(f *tview.Form, label, text string) {
	f.GetFormItemByLabel(label).(*tview.InputField).SetText(text)
}

func TestLoginViewTogglesRegistration(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	lv := NewLoginView(newHarness(t, vm).env, tuimodel.NewLogin(vm))

	require.Equal(t, 2, lv.form.GetFormItemCount())
	require.Nil(t, lv.form.GetFormItemByLabel("Display name"))

	inputText(lv.form, "Email", "ana@example.com")
	lv.toggle()
	require.Equal(t, 3, lv.form.GetFormItemCount())
	require.NotNil(t, lv.form.GetFormItemByLabel("Display name"))
	require.Equal(t, "ana@example.com", lv.form.GetFormItemByLabel("Email").(*tview.InputField).GetText())
}

func TestLoginViewShowsFormError(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	h := newHarness(t, vm)
	lv := NewLoginView(h.env, tuimodel.NewLogin(vm))

	lv.submit()
	require.Eventually(t, func() bool {
		var text string
		h.locked(func() { text = lv.info.GetText(true) })
		return strings.Contains(text, "Please fill in email and password")
	}, 3*time.Second, 10*time.Millisecond)
	require.Empty(t, h.routes)
}

func TestLoginViewRegistersAndNavigates(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	h := newHarness(t, vm)
	lv := NewLoginView(h.env, tuimodel.NewLogin(vm))

	lv.toggle()
	inputText(lv.form, "Display name", "Ana")
	inputText(lv.form, "Email", "ana@example.com")
	inputText(lv.form, "Password", "secret1")
	lv.submit()

	select {
	case route := <-h.routes:
		require.Equal(t, guard.RouteChat, route)
	case <-time.After(3 * time.Second):
		t.Fatal("login did not navigate")
	}
	require.True(t, vm.SignedIn())
}

func TestChatViewOpensThread(t *testing.T) {
	be := backendtest.New(t)
	bob := newVM(t, be)
	signUp(t, bob, "bob@example.com", "Bob")
	alice := newVM(t, be)
	signUp(t, alice, "alice@example.com", "Alice")

	h := newHarness(t, alice)
	state := tuimodel.NewChat(alice)
	cv := NewChatView(h.env, state)
	require.NoError(t, cv.Start(context.Background()))
	defer cv.Stop()

	bobID := bob.Session.Identity().UID
	cv.open(bobID)
	require.Eventually(t, func() bool { return state.PeerID() == bobID }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, state.Send(context.Background(), "hello bob"))
	require.Eventually(t, func() bool {
		var text, title string
		h.locked(func() {
			cv.Refresh()
			text = cv.thread.Messages().GetText(true)
			title = cv.thread.Messages().GetTitle()
		})
		return strings.Contains(text, "hello bob") && strings.Contains(title, "Bob")
	}, 3*time.Second, 10*time.Millisecond)

	h.locked(func() {
		cv.closeThread()
		require.Contains(t, cv.thread.Messages().GetText(true), "Select a conversation")
	})
}

func TestProfileViewFillsForm(t *testing.T) {
	vm := newVM(t, backendtest.New(t))
	signUp(t, vm, "ana@example.com", "Ana")
	h := newHarness(t, vm)
	pv := NewProfileView(h.env, tuimodel.NewProfile(vm))
	require.NoError(t, pv.Start(context.Background()))
	defer pv.Stop()

	require.Eventually(t, func() bool {
		var name string
		h.locked(func() {
			pv.Refresh()
			name = pv.profile.GetFormItemByLabel("Display name").(*tview.InputField).GetText()
		})
		return name == "Ana"
	}, 3*time.Second, 10*time.Millisecond)

	h.locked(func() {
		require.Contains(t, pv.share.GetText(true), tuimodel.ShareScheme+vm.Session.Identity().UID)
	})
}
