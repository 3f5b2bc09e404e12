package backend

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/matheus3301/parley/internal/store"
	"go.uber.org/zap"
)

// PutObject implements Service. Only images are accepted. The object is stored
// under the caller's avatar folder with a fresh name, so uploads never collide.
func (b *Backend) PutObject(ctx context.Context, name string, data []byte) (*Object, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if b.blobs == nil {
		return nil, fmt.Errorf("%w: photo storage is not configured", ErrInvalidArgument)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidArgument)
	}
	if int64(len(data)) > b.maxObjectBytes {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d", ErrInvalidArgument, len(data), b.maxObjectBytes)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is %s, not an image", ErrInvalidArgument, name, mt.String())
	}

	key := "avatars/" + claims.UserID + "/" + uuid.NewString() + mt.Extension()
	url, err := b.blobs.Put(ctx, key, mt.String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	o := &store.Object{
		Key:         key,
		OwnerUID:    claims.UserID,
		URL:         url,
		ContentType: mt.String(),
		Size:        int64(len(data)),
		CreatedAt:   b.now().UnixMilli(),
	}
	if err := b.db.PutObject(ctx, o); err != nil {
		return nil, fmt.Errorf("record object: %w", err)
	}
	b.logger.Info("object stored", zap.String("key", key), zap.Int64("size", o.Size))
	return &Object{Key: key, URL: url, ContentType: o.ContentType, Size: o.Size}, nil
}

// DeleteObject implements Service. The object is addressed by the URL PutObject returned.
func (b *Backend) DeleteObject(ctx context.Context, url string) error {
	claims, err := b.caller(ctx)
	if err != nil {
		return err
	}
	o, err := b.db.GetObjectByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("load object: %w", err)
	}
	if o == nil {
		return fmt.Errorf("%w: no object at %s", ErrNotFound, url)
	}
	if o.OwnerUID != claims.UserID {
		return fmt.Errorf("%w: object belongs to another user", ErrPermissionDenied)
	}
	if b.blobs != nil {
		if err := b.blobs.Delete(ctx, o.Key); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
	}
	return b.db.DeleteObject(ctx, o.Key)
}
