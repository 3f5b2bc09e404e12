package instance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".parley", "instances", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := For("test")
	tests := []struct {
		name   string
		got    string
		suffix string
	}{
		{"socket", l.SocketPath(), filepath.Join("instances", "test", "parleyd.sock")},
		{"lock", l.LockPath(), filepath.Join("instances", "test", "LOCK")},
		{"db", l.DBPath(), filepath.Join("instances", "test", "parley.db")},
		{"blobs", l.BlobDir(), filepath.Join("instances", "test", "blobs")},
		{"key", l.KeyPath(), filepath.Join("instances", "test", "jwt.key")},
		{"token", l.TokenPath(), filepath.Join("instances", "test", "token")},
		{"log", l.LogPath("parleyd"), filepath.Join("instances", "test", "logs", "parleyd.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasSuffix(tt.got, tt.suffix) {
				t.Errorf("%s path = %q, want suffix %s", tt.name, tt.got, tt.suffix)
			}
		})
	}
	if SocketPath("test") != l.SocketPath() {
		t.Error("SocketPath(name) should match the layout")
	}
}

func TestEnsureDir(t *testing.T) {
	l := Layout{Dir: filepath.Join(t.TempDir(), "instances", "test")}

	if err := l.EnsureDir(); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{l.Dir, l.LogDir(), l.BlobDir()} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("%s not created: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
	}
}
