package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/tui/ui"
	"github.com/rivo/tview"
)

// UserList is the directory of other users with their presence.
type UserList struct {
	*tview.Table
	theme      *ui.Theme
	users      []model.UserProfile
	visible    []model.UserProfile
	filter     string
	onlineOnly bool
}

// NewUserList creates the user directory table.
func NewUserList(theme *ui.Theme) *UserList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &UserList{Table: table, theme: theme}
}

// Update refreshes the directory.
func (ul *UserList) Update(users []model.UserProfile, onlineOnly bool) {
	ul.users = users
	ul.onlineOnly = onlineOnly
	ul.render()
}

// SetFilter sets the active filter text and re-renders.
func (ul *UserList) SetFilter(filter string) {
	ul.filter = filter
	ul.render()
}

func (ul *UserList) render() {
	row, _ := ul.GetSelection()
	ul.Clear()

	for col, h := range []string{"  ", " NAME", " EMAIL", " STATUS"} {
		ul.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(ul.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(min(col, 1)))
	}

	ul.visible = ul.visible[:0]
	for _, u := range ul.users {
		if ul.filter != "" && !containsFold(u.DisplayName, ul.filter) && !containsFold(u.Email, ul.filter) {
			continue
		}
		ul.visible = append(ul.visible, u)
		r := len(ul.visible)

		status := string(u.Status)
		if !u.IsOnline {
			status = "offline"
		}
		dot := ul.theme.StatusColor(string(u.Status), u.IsOnline)
		name := u.DisplayName
		if name == "" {
			name = model.UnknownUser
		}
		ul.SetCell(r, 0, tview.NewTableCell(" ●").SetTextColor(dot))
		ul.SetCell(r, 1, tview.NewTableCell(" "+display(name)).SetExpansion(1).SetTextColor(ul.theme.FgColor))
		ul.SetCell(r, 2, tview.NewTableCell(" "+display(u.Email)).SetExpansion(1).SetTextColor(ul.theme.FgColor))
		ul.SetCell(r, 3, tview.NewTableCell(" "+status).SetTextColor(dot))
	}
	if row > len(ul.visible) {
		row = len(ul.visible)
	}
	ul.Select(max(row, 1), 0)

	title := "Users"
	if ul.onlineOnly {
		title = "Online"
	}
	ul.SetTitle(fmt.Sprintf(" %s (%d) ", title, len(ul.visible)))
}

// Selected returns the uid of the selected user.
func (ul *UserList) Selected() string {
	row, _ := ul.GetSelection()
	if row < 1 || row > len(ul.visible) {
		return ""
	}
	return ul.visible[row-1].UID
}
