// Package profile reads and edits the signed-in user's profile and account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/session"
	"go.uber.org/zap"
)

// Service edits profiles on behalf of the session's user.
type Service struct {
	sess    *session.Session
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a profile service bound to sess.
func New(sess *session.Session, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sess: sess, logger: logger, timeout: 30 * time.Second}
}

func (s *Service) actor(ctx context.Context) (*model.Identity, context.Context, error) {
	id := s.sess.Identity()
	if id == nil {
		return nil, nil, session.ErrUnauthenticated
	}
	return id, s.sess.Context(ctx), nil
}

// write detaches a one-shot write from the caller's cancellation.
func (s *Service) write(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// GetProfile returns the profile of uid, or nil when none exists.
func (s *Service) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	_, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.sess.Backend().GetUser(ctx, uid)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// WatchProfile streams the profile of uid; nil is emitted while it does not exist.
func (s *Service) WatchProfile(ctx context.Context, uid string) (*live.Stream[*model.UserProfile], error) {
	_, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.sess.Backend().WatchUser(ctx, uid)
}

// UpdateProfile writes the set fields of u. A changed display name or photo is
// mirrored into the identity record.
func (s *Service) UpdateProfile(ctx context.Context, uid string, u model.ProfileUpdate) error {
	_, ctx, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	svc := s.sess.Backend()
	if err := svc.UpdateUser(ctx, uid, u.Patch()); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if u.DisplayName == nil && u.PhotoURL == nil {
		return nil
	}
	if err := svc.UpdateIdentity(ctx, u.DisplayName, u.PhotoURL); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if _, err := s.sess.RefreshIdentity(ctx); err != nil {
		s.logger.Warn("could not refresh identity", zap.Error(err))
	}
	return nil
}

// ChangePassword proves current and then sets next. A wrong current password
// fails before anything is changed.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if _, _, err := s.actor(ctx); err != nil {
		return err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	if err := s.sess.Reauthenticate(ctx, current); err != nil {
		return err
	}
	return s.sess.Backend().UpdatePassword(s.sess.Context(ctx), next)
}

// ChangeEmail proves password, changes the sign-in email and mirrors it into the profile.
func (s *Service) ChangeEmail(ctx context.Context, newEmail, password string) error {
	me, _, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	if err := s.sess.Reauthenticate(ctx, password); err != nil {
		return err
	}
	svc := s.sess.Backend()
	authed := s.sess.Context(ctx)
	if err := svc.UpdateEmail(authed, newEmail); err != nil {
		return err
	}
	id, err := s.sess.RefreshIdentity(ctx)
	if err != nil {
		return fmt.Errorf("refresh identity: %w", err)
	}
	if err := svc.UpdateUser(authed, me.UID, model.UserPatch{Email: model.Ptr(id.Email)}); err != nil {
		return fmt.Errorf("mirror email into profile: %w", err)
	}
	return nil
}

// UploadPhoto stores data as the user's new photo and points the profile at it.
// The previous photo is deleted when it was uploaded by this user.
func (s *Service) UploadPhoto(ctx context.Context, name string, data []byte) (string, error) {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return "", err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	obj, err := s.sess.Backend().PutObject(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	previous := me.PhotoURL
	if err := s.UpdateProfile(ctx, me.UID, model.ProfileUpdate{PhotoURL: model.Ptr(obj.URL)}); err != nil {
		return "", err
	}
	if previous != "" && previous != obj.URL {
		s.dropObject(ctx, previous)
	}
	return obj.URL, nil
}

// UploadPhotoFile reads path and uploads it with UploadPhoto.
func (s *Service) UploadPhotoFile(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	return s.UploadPhoto(ctx, filepath.Base(path), data)
}

// RemovePhoto clears the profile photo and deletes the stored object.
func (s *Service) RemovePhoto(ctx context.Context) error {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if me.PhotoURL == "" {
		return nil
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	if err := s.UpdateProfile(ctx, me.UID, model.ProfileUpdate{PhotoURL: model.Ptr("")}); err != nil {
		return err
	}
	s.dropObject(ctx, me.PhotoURL)
	return nil
}

// SetPresence flags the user's profile online or offline without touching the
// declared status.
func (s *Service) SetPresence(ctx context.Context, online bool) error {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()
	if err := s.sess.Backend().UpdateUser(ctx, me.UID, model.UserPatch{IsOnline: model.Ptr(online)}); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

func (s *Service) dropObject(ctx context.Context, url string) {
	err := s.sess.Backend().DeleteObject(ctx, url)
	if err != nil && !errors.Is(err, backend.ErrNotFound) && !errors.Is(err, backend.ErrPermissionDenied) {
		s.logger.Warn("could not delete photo", zap.String("url", url), zap.Error(err))
	}
}
