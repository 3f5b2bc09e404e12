// Package backendtest starts in-process backends for client package tests.
package backendtest

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/blob"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/store"
	"github.com/stretchr/testify/require"
)

// Option adjusts the backend options before New builds it.
type Option func(*backend.Options)

// WithUIDs makes sign-ups receive the given ids in order.
func WithUIDs(ids ...string) Option {
	var (
		mu   sync.Mutex
		next int
	)
	return func(o *backend.Options) {
		o.NewUID = func() string {
			mu.Lock()
			defer mu.Unlock()
			id := ids[next]
			next++
			return id
		}
	}
}

// New returns a backend over a fresh database and local blob store in t's temp dir.
func New(t testing.TB, opts ...Option) *backend.Backend {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "backend.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blob.NewLocal(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	o := backend.Options{
		Tokens: authn.NewTokens("backendtest", time.Hour),
		Blobs:  blobs,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return backend.New(db, bus.New(), o)
}
