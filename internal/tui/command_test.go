package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: "quit"}},
		{"q", Command{Name: "quit"}},
		{"  Photo   ~/me.png ", Command{Name: "photo", Args: "~/me.png"}},
		{"chat bob", Command{Name: "chat", Args: "bob"}},
		{"p", Command{Name: "profile"}},
		{"signout", Command{Name: "logout"}},
		{"users online", Command{Name: "users", Args: "online"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
