// Package session holds the signed-in user of a client process: the identity,
// the session token attached to every backend call, and the auth state that
// screens and guards observe.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/status"
	"go.uber.org/zap"
)

// ErrUnauthenticated is returned by client operations attempted without a session.
var ErrUnauthenticated = errors.New("not authenticated")

// Session is the process-wide current user.
type Session struct {
	svc     backend.Service
	machine *status.Machine
	bus     *bus.Bus
	tokens  TokenStore
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	token    string
	identity *model.Identity
}

// New creates a session in the Resolving state. Call Restore to resolve it.
func New(svc backend.Service, b *bus.Bus, tokens TokenStore, logger *zap.Logger) *Session {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if b == nil {
		b = bus.New()
	}
	return &Session{
		svc:     svc,
		machine: status.NewMachine(b),
		bus:     b,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// Backend returns the service every call goes through.
func (s *Session) Backend() backend.Service {
	return s.svc
}

// Machine returns the auth state machine.
func (s *Session) Machine() *status.Machine {
	return s.machine
}

// State returns the current auth state.
func (s *Session) State() status.State {
	return s.machine.Current()
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *Session) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Context attaches the session token to ctx. Without a session ctx is returned unchanged.
func (s *Session) Context(ctx context.Context) context.Context {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return ctx
	}
	return authn.WithToken(ctx, token)
}

// Restore resolves the initial auth state from a stored token. A token the
// backend rejects is discarded and the session resolves to signed out.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("token store unreadable", zap.Error(err))
	}
	if token != "" {
		id, err := s.svc.Me(authn.WithToken(ctx, token))
		switch {
		case err == nil:
			s.set(token, id)
			s.goOnline(ctx)
			return s.machine.Transition(status.SignedIn)
		case authn.CodeOf(err) == authn.CodeNetworkFailed:
			_ = s.machine.Transition(status.SignedOut)
			return err
		default:
			s.logger.Info("stored session rejected", zap.Error(err))
			_ = s.tokens.Clear()
		}
	}
	return s.machine.Transition(status.SignedOut)
}

// SignIn authenticates with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	res, err := s.svc.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.established(ctx, res)
}

// SignUp creates an account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	res, err := s.svc.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	return s.established(ctx, res)
}

func (s *Session) established(ctx context.Context, res *backend.AuthResult) (*model.Identity, error) {
	if err := s.tokens.Save(res.Token); err != nil {
		s.logger.Warn("could not persist session token", zap.Error(err))
	}
	id := res.Identity
	s.set(res.Token, &id)
	s.goOnline(ctx)
	if s.machine.Current() != status.SignedIn {
		if err := s.machine.Transition(status.SignedIn); err != nil {
			return nil, err
		}
	}
	s.logger.Info("signed in", zap.String("uid", id.UID))
	return s.Identity(), nil
}

// Reauthenticate proves the password again and replaces the session token.
func (s *Session) Reauthenticate(ctx context.Context, password string) error {
	res, err := s.svc.Reauthenticate(s.Context(ctx), password)
	if err != nil {
		return err
	}
	if err := s.tokens.Save(res.Token); err != nil {
		s.logger.Warn("could not persist session token", zap.Error(err))
	}
	id := res.Identity
	s.set(res.Token, &id)
	return nil
}

// RefreshIdentity reloads the identity record after it changed on the backend.
func (s *Session) RefreshIdentity(ctx context.Context) (*model.Identity, error) {
	id, err := s.svc.Me(s.Context(ctx))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	return s.Identity(), nil
}

// SignOut marks the profile offline and forgets the token. The offline write
// is best effort; the session is cleared even when it fails.
func (s *Session) SignOut(ctx context.Context) error {
	id := s.Identity()
	if id == nil {
		return nil
	}
	err := s.svc.UpdateUser(s.Context(ctx), id.UID, model.UserPatch{
		IsOnline: model.Ptr(false),
		Status:   model.Ptr(model.StatusOffline),
	})
	if err != nil {
		s.logger.Warn("could not mark profile offline", zap.Error(err))
	}
	s.set("", nil)
	if cerr := s.tokens.Clear(); cerr != nil {
		s.logger.Warn("could not clear session token", zap.Error(cerr))
	}
	if s.machine.Current() == status.SignedIn {
		if terr := s.machine.Transition(status.SignedOut); terr != nil {
			return terr
		}
	}
	s.logger.Info("signed out", zap.String("uid", id.UID))
	return nil
}

// Watch streams the auth state, starting with the current one once resolved.
func (s *Session) Watch(ctx context.Context) *live.Stream[status.State] {
	events, unsub := s.bus.Subscribe(status.EventKind, 4)
	return live.Start(ctx, func(ctx context.Context, emit func(status.State) bool) error {
		defer unsub()
		if _, err := s.machine.Wait(ctx); err != nil {
			return nil
		}
		if !emit(s.machine.Current()) {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case evt := <-events:
				change, ok := evt.Payload.(status.StatusChange)
				if !ok || change.From == status.Resolving {
					continue
				}
				if !emit(change.To) {
					return nil
				}
			}
		}
	})
}

func (s *Session) set(token string, id *model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = id
}

// goOnline creates the profile on first authentication and flags it online
// with the online status.
// Failures are logged; a missing profile does not block the session.
func (s *Session) goOnline(ctx context.Context) {
	id := s.Identity()
	if id == nil {
		return
	}
	ctx = s.Context(ctx)
	now := s.now()
	_, err := s.svc.CreateUser(ctx, &model.UserProfile{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.FallbackName(),
		PhotoURL:    id.PhotoURL,
		CreatedAt:   now,
		LastLoginAt: &now,
		UpdatedAt:   now,
		IsOnline:    true,
		Status:      model.StatusOnline,
	})
	if err != nil {
		s.logger.Warn("could not create profile", zap.String("uid", id.UID), zap.Error(err))
		return
	}
	err = s.svc.UpdateUser(ctx, id.UID, model.UserPatch{
		IsOnline:    model.Ptr(true),
		Status:      model.Ptr(model.StatusOnline),
		LastLoginAt: &now,
	})
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		s.logger.Warn("could not mark profile online", zap.String("uid", id.UID), zap.Error(fmt.Errorf("update presence: %w", err)))
	}
}
