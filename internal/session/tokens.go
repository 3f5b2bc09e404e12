package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a 0600 file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns the stored token, or "" when none was saved.
func (f *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token+"\n"), 0600)
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryTokenStore keeps the token for the life of the process only.
type MemoryTokenStore struct {
	token string
}

func (m *MemoryTokenStore) Load() (string, error) { return m.token, nil }
func (m *MemoryTokenStore) Save(token string) error {
	m.token = token
	return nil
}
func (m *MemoryTokenStore) Clear() error {
	m.token = ""
	return nil
}
