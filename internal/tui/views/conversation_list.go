package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the table of the user's chats, most recent first.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	self    string
	chats   []model.Chat
	visible []model.Chat
	filter  string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Update refreshes the list for the user self.
func (cl *ConversationList) Update(self string, chats []model.Chat) {
	cl.self = self
	cl.chats = chats
	cl.render()
}

// SetFilter sets the active filter text and re-renders. An empty filter shows everything.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

func (cl *ConversationList) matches(c *model.Chat) bool {
	return cl.filter == "" ||
		containsFold(c.DisplayNameFor(cl.self), cl.filter) ||
		containsFold(c.LastMessage, cl.filter)
}

func (cl *ConversationList) render() {
	row, _ := cl.GetSelection()
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	cl.visible = cl.visible[:0]
	for i := range cl.chats {
		chat := &cl.chats[i]
		if !cl.matches(chat) {
			continue
		}
		cl.visible = append(cl.visible, *chat)
		r := len(cl.visible)

		preview := chat.Preview(40)
		color := cl.theme.FgColor
		if chat.PeerTyping(cl.self) {
			preview = "typing..."
			color = cl.theme.TypingColor
		} else if chat.LastMessageSender == cl.self && chat.LastMessage != "" {
			preview = "You: " + preview
		}

		cl.SetCell(r, 0, tview.NewTableCell(" "+display(chat.DisplayNameFor(cl.self))).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 1, tview.NewTableCell(" "+display(preview)).SetExpansion(2).SetTextColor(color))
		cl.SetCell(r, 2, tview.NewTableCell(formatTimestamp(chat.LastMessageTime)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
	}
	if row > len(cl.visible) {
		row = len(cl.visible)
	}
	cl.Select(max(row, 1), 0)

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.chats), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.chats)))
	}
}

// Selected returns the uid of the other participant of the selected chat.
func (cl *ConversationList) Selected() string {
	row, _ := cl.GetSelection()
	return cl.PeerByIndex(row)
}

// PeerByIndex returns the other participant of the Nth visible chat (1-based).
func (cl *ConversationList) PeerByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].OtherParticipant(cl.self)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
