package tui

import (
	"context"
	"time"

	"github.com/matheus3301/parley/internal/api"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/config"
	"github.com/matheus3301/parley/internal/instance"
	"github.com/matheus3301/parley/internal/logging"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/profile"
	"github.com/matheus3301/parley/internal/session"
	"github.com/matheus3301/parley/internal/tui/client"
	"github.com/matheus3301/parley/internal/tui/model"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved instance passed to the fx module.
type Params struct {
	InstanceName string
	// Connect overrides the daemon connection; nil means client.Connect.
	Connect func(ctx context.Context, name string, opts client.Options) (*api.Client, error)
}

// Module returns the fx module of the terminal client. The application stops
// the fx app when the user quits.
func Module(p Params) fx.Option {
	return fx.Options(
		// The terminal belongs to tview, so fx logs go to the log file.
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Module("tui",
			fx.Supply(p),
			fx.Provide(
				provideConfig,
				provideLogger,
				provideClient,
				provideSession,
				provideMessaging,
				provideProfile,
				provideViewModel,
				provideApp,
			),
			fx.Invoke(registerLifecycle),
		),
	)
}

func provideConfig() (*config.Config, error) {
	return config.LoadOrDefault(instance.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(instance.For(p.InstanceName).LogPath("parley"), p.InstanceName, false)
}

func provideClient(lc fx.Lifecycle, p Params, logger *zap.Logger) (*api.Client, error) {
	connect := p.Connect
	if connect == nil {
		connect = client.Connect
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c, err := connect(ctx, p.InstanceName, client.Options{Logger: logger.Named("client")})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c, nil
}

// provideSession restores the stored session. A daemon that cannot verify the
// token leaves the user signed out rather than failing startup.
func provideSession(p Params, c *api.Client, logger *zap.Logger) *session.Session {
	tokens := session.NewFileTokenStore(instance.For(p.InstanceName).TokenPath())
	sess := session.New(c, bus.New(), tokens, logger.Named("session"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sess.Restore(ctx); err != nil {
		logger.Warn("could not restore session", zap.Error(err))
	}
	return sess
}

func provideMessaging(sess *session.Session, cfg *config.Config, logger *zap.Logger) *messaging.Service {
	return messaging.New(sess, logger.Named("messaging"), messaging.Options{
		TypingIdle: cfg.UI.TypingIdle.Duration,
	})
}

func provideProfile(sess *session.Session, logger *zap.Logger) *profile.Service {
	return profile.New(sess, logger.Named("profile"))
}

func provideViewModel(p Params, sess *session.Session, msg *messaging.Service, prof *profile.Service) *model.ViewModel {
	return model.NewViewModel(p.InstanceName, sess, msg, prof)
}

func provideApp(vm *model.ViewModel, logger *zap.Logger) *App {
	return NewApp(vm, logger.Named("tui"))
}

func registerLifecycle(lc fx.Lifecycle, app *App, vm *model.ViewModel, sd fx.Shutdowner, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("terminal ui failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
					return
				}
				_ = sd.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			app.Stop()
			// Leave the user offline on exit; the stored token keeps them signed in.
			if vm.SignedIn() {
				if err := vm.Profile.SetPresence(ctx, false); err != nil {
					logger.Warn("could not mark offline", zap.Error(err))
				}
			}
			_ = logger.Sync()
			return nil
		},
	})
}
