// Package instance resolves the on-disk layout of a named backend instance.
package instance

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.parley.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".parley")
}

// Dir returns the instance-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "instances", name)
}

// Layout names the files of one instance directory.
type Layout struct {
	Dir string
}

// For returns the layout of the named instance under BaseDir.
func For(name string) Layout {
	return Layout{Dir: Dir(name)}
}

// SocketPath is the UDS socket of the instance daemon.
func (l Layout) SocketPath() string { return filepath.Join(l.Dir, "parleyd.sock") }

// LockPath is the daemon lock file.
func (l Layout) LockPath() string { return filepath.Join(l.Dir, "LOCK") }

// DBPath is the document database.
func (l Layout) DBPath() string { return filepath.Join(l.Dir, "parley.db") }

// BlobDir holds the local photo store.
func (l Layout) BlobDir() string { return filepath.Join(l.Dir, "blobs") }

// KeyPath is the generated token signing key.
func (l Layout) KeyPath() string { return filepath.Join(l.Dir, "jwt.key") }

// TokenPath is where a signed-in client keeps its session token.
func (l Layout) TokenPath() string { return filepath.Join(l.Dir, "token") }

// LogDir is the log directory.
func (l Layout) LogDir() string { return filepath.Join(l.Dir, "logs") }

// LogPath is the log file of the named program.
func (l Layout) LogPath(program string) string {
	return filepath.Join(l.LogDir(), program+".log")
}

// EnsureDir creates the instance directory tree with proper permissions.
func (l Layout) EnsureDir() error {
	for _, d := range []string{l.Dir, l.LogDir(), l.BlobDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// SocketPath returns the UDS socket path of the instance daemon.
func SocketPath(name string) string { return For(name).SocketPath() }

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}
