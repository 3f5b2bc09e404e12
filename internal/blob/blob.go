// Package blob stores profile photos.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that would escape the store.
var ErrInvalidKey = errors.New("blob: invalid key")

// Store puts and deletes opaque objects addressed by slash-separated keys.
type Store interface {
	// Put writes the object and returns a URL that can be shown to other users.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}
