package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays the messages of one conversation, the peer's typing
// indicator and a composer.
type MessageThread struct {
	*tview.Flex
	theme     *ui.Theme
	messages  *tview.TextView
	typing    *tview.TextView
	composer  *tview.InputField
	onSend    func(text string)
	onKey     func()
	lastCount int
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	typing := tview.NewTextView().SetDynamicColors(true)
	typing.SetBackgroundColor(theme.BgColor)
	typing.SetTextColor(theme.TypingColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("Type a message...")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, false).
		AddItem(typing, 1, 0, false).
		AddItem(composer, 3, 0, true)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		typing:   typing,
		composer: composer,
	}

	composer.SetChangedFunc(func(string) {
		if mt.onKey != nil {
			mt.onKey()
		}
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			text := composer.GetText()
			mt.clearComposer()
			mt.onSend(text)
		}
	})

	mt.Reset("")
	return mt
}

// clearComposer empties the composer without reporting a keystroke.
func (mt *MessageThread) clearComposer() {
	onKey := mt.onKey
	mt.onKey = nil
	mt.composer.SetText("")
	mt.onKey = onKey
}

// SetOnSend sets the callback when Enter is pressed in the composer.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// SetOnKeystroke sets the callback for every edit of the composer text.
func (mt *MessageThread) SetOnKeystroke(fn func()) {
	mt.onKey = fn
}

// Reset clears the thread. An empty peer name shows the placeholder.
func (mt *MessageThread) Reset(peerName string) {
	mt.messages.Clear()
	mt.typing.Clear()
	mt.lastCount = -1
	mt.clearComposer()
	if peerName == "" {
		mt.messages.SetTitle(" Messages ")
		_, _ = fmt.Fprint(mt.messages, "\n  Select a conversation or a user to start chatting.")
		return
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s ", display(peerName)))
}

// Update renders the thread as seen by self.
func (mt *MessageThread) Update(self, peerName string, msgs []model.Message, peerTyping bool) {
	mt.messages.SetTitle(fmt.Sprintf(" %s ", display(peerName)))

	mt.typing.Clear()
	if peerTyping {
		_, _ = fmt.Fprintf(mt.typing, " [::i]%s is typing...[-:-:-]", display(peerName))
	}

	if len(msgs) == mt.lastCount {
		return
	}
	mt.lastCount = len(msgs)
	mt.messages.Clear()
	if len(msgs) == 0 {
		_, _ = fmt.Fprint(mt.messages, "\n  No messages yet. Say hello!")
		return
	}

	selfColor := ui.ColorTag(mt.theme.SelfColor)
	peerColor := ui.ColorTag(mt.theme.PeerColor)
	for _, m := range msgs {
		sender, color := m.SenderName, peerColor
		if sender == "" {
			sender = model.UnknownUser
		}
		if m.SenderID == self {
			sender, color = "You", selfColor
		}
		_, _ = fmt.Fprintf(mt.messages, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			color, display(sender), formatTimestamp(m.Timestamp),
			tview.Escape(sanitizeForTerminal(m.Text, false)))
	}
	mt.messages.ScrollToEnd()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
