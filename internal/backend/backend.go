// Package backend implements the hosted services the messaging client relies on:
// password authentication, the users/chats/messages document collections with
// realtime change subscriptions, and photo storage.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/blob"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/metrics"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/store"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// AuthResult is returned by every operation that proves the password.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Identity  model.Identity `json:"identity"`
}

// Object describes a stored photo.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Stats summarizes the backend for status displays.
type Stats struct {
	Users         int           `json:"users"`
	Online        int           `json:"online"`
	Chats         int           `json:"chats"`
	Messages      int           `json:"messages"`
	Subscriptions int           `json:"subscriptions"`
	Uptime        time.Duration `json:"uptime"`
}

// Service is the client-facing surface of the backend. Every method except
// SignUp, SignIn and Stats requires a session token attached with authn.WithToken.
type Service interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	Reauthenticate(ctx context.Context, password string) (*AuthResult, error)
	Me(ctx context.Context) (*model.Identity, error)
	UpdatePassword(ctx context.Context, newPassword string) error
	UpdateEmail(ctx context.Context, newEmail string) error
	UpdateIdentity(ctx context.Context, displayName, photoURL *string) error

	GetUser(ctx context.Context, uid string) (*model.UserProfile, error)
	SetUser(ctx context.Context, u *model.UserProfile) error
	CreateUser(ctx context.Context, u *model.UserProfile) (bool, error)
	UpdateUser(ctx context.Context, uid string, p model.UserPatch) error
	WatchUser(ctx context.Context, uid string) (*live.Stream[*model.UserProfile], error)
	WatchUsers(ctx context.Context, onlineOnly bool) (*live.Stream[[]model.UserProfile], error)

	GetChat(ctx context.Context, id string) (*model.Chat, error)
	MergeChat(ctx context.Context, id string, p model.ChatPatch) error
	WatchChat(ctx context.Context, id string) (*live.Stream[*model.Chat], error)
	WatchUserChats(ctx context.Context, uid string) (*live.Stream[[]model.Chat], error)

	AddMessage(ctx context.Context, m *model.Message) (*model.Message, error)
	WatchMessages(ctx context.Context, chatID string) (*live.Stream[[]model.Message], error)

	PutObject(ctx context.Context, name string, data []byte) (*Object, error)
	DeleteObject(ctx context.Context, url string) error

	Stats(ctx context.Context) (*Stats, error)
}

// Options configures a Backend. Zero values select defaults.
type Options struct {
	Tokens         *authn.Tokens
	Limiter        *authn.Limiter
	Blobs          blob.Store
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	RecentLogin    time.Duration
	MaxObjectBytes int64
	// NewUID generates account ids.
	NewUID func() string
	Now    func() time.Time
}

// Backend is the in-process implementation of Service.
type Backend struct {
	db      *store.DB
	bus     *bus.Bus
	tokens  *authn.Tokens
	limiter *authn.Limiter
	blobs   blob.Store
	metrics *metrics.Metrics
	logger  *zap.Logger

	recentLogin    time.Duration
	maxObjectBytes int64
	newUID         func() string
	now            func() time.Time
	startedAt      time.Time
}

var _ Service = (*Backend)(nil)

// New creates a backend over db that announces document changes on b.
func New(db *store.DB, b *bus.Bus, opts Options) *Backend {
	be := &Backend{
		db:             db,
		bus:            b,
		tokens:         opts.Tokens,
		limiter:        opts.Limiter,
		blobs:          opts.Blobs,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		recentLogin:    opts.RecentLogin,
		maxObjectBytes: opts.MaxObjectBytes,
		newUID:         opts.NewUID,
		now:            opts.Now,
	}
	if be.logger == nil {
		be.logger = zap.NewNop()
	}
	if be.tokens == nil {
		be.tokens = authn.NewTokens(uuid.NewString(), 24*time.Hour)
	}
	if be.recentLogin <= 0 {
		be.recentLogin = 5 * time.Minute
	}
	if be.maxObjectBytes <= 0 {
		be.maxObjectBytes = 5 << 20
	}
	if be.newUID == nil {
		be.newUID = func() string { return uuid.NewString() }
	}
	if be.now == nil {
		be.now = time.Now
	}
	be.startedAt = be.now()
	return be
}

// caller returns the verified claims of the session token carried by ctx.
func (b *Backend) caller(ctx context.Context) (*authn.Claims, error) {
	token, ok := authn.TokenFromContext(ctx)
	if !ok {
		return nil, authn.Errorf(authn.CodeUnauthenticated, "sign in required")
	}
	return b.tokens.Verify(token)
}

func (b *Backend) publish(collection, id string) {
	b.bus.Publish(bus.Event{Kind: bus.DocKind(collection, id), Timestamp: b.now()})
}

// watch opens a realtime query and tracks it in the subscription gauge.
func watch[T any](ctx context.Context, b *Backend, collection, prefix string, query func(context.Context) (T, error)) *live.Stream[T] {
	done := b.metrics.SubscriptionOpened(collection)
	s := live.Watch(ctx, b.bus, prefix, query)
	go func() {
		<-s.Done()
		done()
	}()
	return s
}

// Stats implements Service. It does not require a session.
func (b *Backend) Stats(ctx context.Context) (*Stats, error) {
	c, err := b.db.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Users:         c.Users,
		Online:        c.Online,
		Chats:         c.Chats,
		Messages:      c.Messages,
		Subscriptions: b.bus.Subscribers(),
		Uptime:        b.now().Sub(b.startedAt),
	}, nil
}
