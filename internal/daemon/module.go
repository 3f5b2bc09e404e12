package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/blob"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/config"
	"github.com/matheus3301/parley/internal/instance"
	"github.com/matheus3301/parley/internal/lock"
	"github.com/matheus3301/parley/internal/logging"
	"github.com/matheus3301/parley/internal/metrics"
	"github.com/matheus3301/parley/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved instance configuration passed to the fx module.
type Params struct {
	InstanceName string
	// Layout overrides the instance directory; zero means instance.For(InstanceName).
	Layout instance.Layout
	// Config overrides config.toml; nil means load it from disk.
	Config *config.Config
	// Console also writes logs to stderr.
	Console bool
}

func (p Params) layout() instance.Layout {
	if p.Layout.Dir != "" {
		return p.Layout
	}
	return instance.For(p.InstanceName)
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideMetrics,
			provideTokens,
			provideLimiter,
			provideBlobs,
			provideBackend,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	return config.LoadOrDefault(instance.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(p.layout().LogPath("parleyd"), p.InstanceName, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	l := p.layout()
	if err := l.EnsureDir(); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock", zap.String("instance", p.InstanceName))
	lk, err := lock.Acquire(l.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return lk, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := p.layout().DBPath()
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

func provideTokens(p Params, cfg *config.Config) (*authn.Tokens, error) {
	key, err := config.SigningKey(cfg, p.layout().KeyPath())
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	return authn.NewTokens(key, cfg.Backend.TokenTTL.Duration), nil
}

func provideLimiter(cfg *config.Config) *authn.Limiter {
	return authn.NewLimiter(cfg.Backend.SignInPerMinute, cfg.Backend.SignInBurst)
}

func provideBlobs(p Params, cfg *config.Config, logger *zap.Logger) (blob.Store, error) {
	switch cfg.Storage.Provider {
	case "", "local":
		return blob.NewLocal(p.layout().BlobDir())
	case "cloudinary":
		return blob.NewCloudinary(blob.CloudinaryConfig{
			CloudName: cfg.Storage.CloudName,
			APIKey:    cfg.Storage.APIKey,
			APISecret: cfg.Storage.APISecret,
			Folder:    cfg.Storage.Folder,
		}, logger)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
}

func provideBackend(
	db *store.DB,
	b *bus.Bus,
	cfg *config.Config,
	tokens *authn.Tokens,
	limiter *authn.Limiter,
	blobs blob.Store,
	m *metrics.Metrics,
	logger *zap.Logger,
) *backend.Backend {
	return backend.New(db, b, backend.Options{
		Tokens:         tokens,
		Limiter:        limiter,
		Blobs:          blobs,
		Metrics:        m,
		Logger:         logger.Named("backend"),
		RecentLogin:    cfg.Backend.RecentLogin.Duration,
		MaxObjectBytes: cfg.Storage.MaxPhotoBytes,
	})
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, be *backend.Backend, limiter *authn.Limiter, m *metrics.Metrics, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if st, err := be.Stats(ctx); err == nil {
				m.SetUsersOnline(st.Online)
				logger.Info("backend ready",
					zap.Int("users", st.Users),
					zap.Int("chats", st.Chats),
					zap.Int("messages", st.Messages))
			}

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			srv.Stop(stopCtx)
			limiter.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
