package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rivo/tview"
)

type fakeScreen struct {
	*tview.Box
	name    string
	started int
	stopped int
	fail    error
}

func newFake(name string) *fakeScreen {
	return &fakeScreen{Box: tview.NewBox(), name: name}
}

func (f *fakeScreen) Name() string { return f.name }
func (f *fakeScreen) Start(context.Context) error {
	if f.fail != nil {
		return f.fail
	}
	f.started++
	return nil
}
func (f *fakeScreen) Stop()             { f.stopped++ }
func (f *fakeScreen) Hints() []MenuHint { return nil }

func TestPagesStartAndStopScreens(t *testing.T) {
	p := NewPages()
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	chat, profile := newFake("chat"), newFake("profile")
	ctx := context.Background()
	if err := p.Push(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if err := p.Push(ctx, profile); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(p.Stack(), ","); got != "chat,profile" {
		t.Fatalf("stack = %s", got)
	}

	if top := p.Pop(); top != profile || profile.stopped != 1 {
		t.Fatalf("Pop() = %v, stopped %d", top, profile.stopped)
	}
	if p.Pop() != nil {
		t.Error("the last screen must not be popped")
	}
	if chat.stopped != 0 || p.Current() != chat {
		t.Error("root screen should stay started")
	}
	if len(seen) != 3 {
		t.Errorf("onChange fired %d times, want 3", len(seen))
	}

	login := newFake("login")
	if err := p.Reset(ctx, login); err != nil {
		t.Fatal(err)
	}
	if chat.stopped != 1 || p.Depth() != 1 || p.Current() != login {
		t.Errorf("Reset left stack %v, chat stopped %d", p.Stack(), chat.stopped)
	}
}

func TestPagesPushFailureKeepsStack(t *testing.T) {
	p := NewPages()
	chat := newFake("chat")
	if err := p.Push(context.Background(), chat); err != nil {
		t.Fatal(err)
	}
	bad := newFake("profile")
	bad.fail = errors.New("no session")
	if err := p.Push(context.Background(), bad); err == nil {
		t.Fatal("expected Start error")
	}
	if p.Depth() != 1 || p.HasPage("profile") {
		t.Errorf("failed push changed the stack: %v", p.Stack())
	}
}

func TestCrumbsTrail(t *testing.T) {
	c := NewCrumbs(DefaultTheme())
	c.SetRoot("main", "", "Ana")
	c.Update([]string{"chat", "profile"})

	got := c.GetText(true)
	for _, want := range []string{"main", "Ana", "chat", "profile"} {
		if !strings.Contains(got, want) {
			t.Errorf("crumbs %q missing %q", got, want)
		}
	}
	if strings.Count(got, ">") != 3 {
		t.Errorf("crumbs %q should have 4 parts", got)
	}

	c.Update(nil)
	if c.GetText(true) != "" {
		t.Error("empty stack should clear the trail")
	}
}

func TestStatusColor(t *testing.T) {
	th := DefaultTheme()
	if th.StatusColor("busy", false) != th.OfflineColor {
		t.Error("offline users use the offline color")
	}
	if th.StatusColor("away", true) != th.AwayColor || th.StatusColor("", true) != th.OnlineColor {
		t.Error("unexpected status colors")
	}
}
