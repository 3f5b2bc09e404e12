package views

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
		oneLine  bool
	}{
		{"hello", "hello", true},
		{"👍\U0001F3FB", "👍", true},
		{"a\u200db", "ab", true},
		{"line1\nline2", "line1 line2", true},
		{"line1\nline2", "line1\nline2", false},
		{"bell\x07 esc\x1b[2J", "bell esc[2J", true},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in, tt.oneLine); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayEscapesTags(t *testing.T) {
	if got := display("[red]x[-]"); strings.Contains(got, "[red]") {
		t.Errorf("display left a color tag: %q", got)
	}
}

func TestRenderQR(t *testing.T) {
	out := renderQR("parley://user/u1")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("QR too small: %d lines", len(lines))
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Error("QR has no modules")
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(time.Time{}); got != "" {
		t.Errorf("zero time = %q, want empty", got)
	}
	now := time.Now()
	if got := formatTimestamp(now); got != now.Format("15:04") {
		t.Errorf("today = %q, want %q", got, now.Format("15:04"))
	}
	old := time.Date(2020, 3, 4, 10, 0, 0, 0, time.Local)
	if got := formatTimestamp(old); got != "03/04" {
		t.Errorf("old = %q, want 03/04", got)
	}
}

func TestContainsFold(t *testing.T) {
	if !containsFold("Alice Smith", "smi") {
		t.Error("expected case-insensitive match")
	}
	if containsFold("Bob", "alice") {
		t.Error("unexpected match")
	}
	if !containsFold("anything", "") {
		t.Error("empty filter should match")
	}
}

func TestComposerEnterSendsWithoutKeystroke(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	var keystrokes int
	var sent []string
	mt.SetOnKeystroke(func() { keystrokes++ })
	mt.SetOnSend(func(text string) { sent = append(sent, text) })

	handle := mt.Composer().InputHandler()
	noFocus := func(tview.Primitive) {}
	handle(tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone), noFocus)
	handle(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone), noFocus)
	handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), noFocus)

	if len(sent) != 1 || sent[0] != "hi" {
		t.Fatalf("sent = %q, want [hi]", sent)
	}
	if keystrokes != 2 {
		t.Errorf("keystrokes = %d, want 2", keystrokes)
	}
	if got := mt.Composer().GetText(); got != "" {
		t.Errorf("composer not cleared: %q", got)
	}
}
