package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"go.uber.org/zap"
)

// own checks that the caller is writing its own profile.
func (b *Backend) own(ctx context.Context, uid string) error {
	claims, err := b.caller(ctx)
	if err != nil {
		return err
	}
	if uid == "" {
		return fmt.Errorf("%w: missing uid", ErrInvalidArgument)
	}
	if claims.UserID != uid {
		return fmt.Errorf("%w: profile %s belongs to another user", ErrPermissionDenied, uid)
	}
	return nil
}

// GetUser implements Service. Any signed-in user may read any profile.
func (b *Backend) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	if _, err := b.caller(ctx); err != nil {
		return nil, err
	}
	u, err := b.db.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	return u, nil
}

// SetUser implements Service.
func (b *Backend) SetUser(ctx context.Context, u *model.UserProfile) error {
	if u == nil {
		return fmt.Errorf("%w: missing profile", ErrInvalidArgument)
	}
	if err := b.own(ctx, u.UID); err != nil {
		return err
	}
	if u.Status != "" && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, u.Status)
	}
	if err := b.db.PutUser(ctx, u); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	b.userChanged(ctx, u.UID)
	return nil
}

// CreateUser implements Service. An existing profile is left untouched.
func (b *Backend) CreateUser(ctx context.Context, u *model.UserProfile) (bool, error) {
	if u == nil {
		return false, fmt.Errorf("%w: missing profile", ErrInvalidArgument)
	}
	if err := b.own(ctx, u.UID); err != nil {
		return false, err
	}
	created, err := b.db.CreateUserIfMissing(ctx, u)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	if created {
		b.logger.Info("profile created", zap.String("uid", u.UID))
		b.userChanged(ctx, u.UID)
	}
	return created, nil
}

// UpdateUser implements Service. Updating a missing profile fails with ErrNotFound.
func (b *Backend) UpdateUser(ctx context.Context, uid string, p model.UserPatch) error {
	if err := b.own(ctx, uid); err != nil {
		return err
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, *p.Status)
	}
	if err := b.db.UpdateUser(ctx, uid, p, b.now().UnixMilli()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user %s", ErrNotFound, uid)
		}
		return fmt.Errorf("update user: %w", err)
	}
	b.userChanged(ctx, uid)
	return nil
}

func (b *Backend) userChanged(ctx context.Context, uid string) {
	b.publish(bus.CollectionUsers, uid)
	if b.metrics == nil {
		return
	}
	if c, err := b.db.Count(ctx); err == nil {
		b.metrics.SetUsersOnline(c.Online)
	}
}

// WatchUser implements Service. The stream emits nil while the profile does not exist.
func (b *Backend) WatchUser(ctx context.Context, uid string) (*live.Stream[*model.UserProfile], error) {
	if _, err := b.caller(ctx); err != nil {
		return nil, err
	}
	return watch(ctx, b, bus.CollectionUsers, bus.DocKind(bus.CollectionUsers, uid),
		func(ctx context.Context) (*model.UserProfile, error) {
			return b.db.GetUser(ctx, uid)
		}), nil
}

// WatchUsers implements Service.
func (b *Backend) WatchUsers(ctx context.Context, onlineOnly bool) (*live.Stream[[]model.UserProfile], error) {
	if _, err := b.caller(ctx); err != nil {
		return nil, err
	}
	return watch(ctx, b, bus.CollectionUsers, bus.CollectionKind(bus.CollectionUsers),
		func(ctx context.Context) ([]model.UserProfile, error) {
			return b.db.ListUsers(ctx, onlineOnly)
		}), nil
}
