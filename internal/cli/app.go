// Package cli wires configuration, storage and the controller together for the
// ayr command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/internal/config"
	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/adapters/file"
	"github.com/aretw0/ayr/pkg/adapters/memory"
	"github.com/aretw0/ayr/pkg/adapters/redis"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/persistence/middleware"
	"github.com/aretw0/ayr/pkg/ports"
	"github.com/aretw0/ayr/pkg/session"
)

// App holds what every command needs.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Manager *session.Manager

	hooks  domain.LifecycleHooks
	closer io.Closer
}

// AppOption configures an App.
type AppOption func(*App)

// WithHooks adds lifecycle hooks to every controller the App builds.
func WithHooks(hooks domain.LifecycleHooks) AppOption {
	return func(a *App) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// WithLogger overrides the logger derived from the config.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.Logger = logger
	}
}

// NewApp builds the logger, the snapshot store and the session manager from cfg.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config: cfg,
		Logger: logging.New(level),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.hooks = a.hooks.Merge(debugHooks(a.Logger))

	store, locker, closer, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a.closer = closer
	if store, err = wrapStore(store, cfg.Store); err != nil {
		_ = a.Close()
		return nil, err
	}

	managerOpts := []session.Option{session.WithLogger(a.Logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	a.Manager = session.NewManager(store, managerOpts...)
	return a, nil
}

func openStore(cfg config.StoreConfig) (ports.StateStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil, nil
	case config.StoreFile, "":
		return file.New(cfg.Dir), nil, nil, nil
	case config.StoreRedis:
		opts := []redis.Option{}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return store, redis.NewLocker(store.Client(), store.Prefix()), store, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown store kind %q", config.ErrInvalid, cfg.Kind)
	}
}

// wrapStore masks variables first and encrypts the masked snapshot.
func wrapStore(store ports.StateStore, cfg config.StoreConfig) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Mask)
		if err != nil {
			return nil, fmt.Errorf("%w: store.mask: %w", config.ErrInvalid, err)
		}
		mws = append(mws, pii)
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// NewController builds a controller for the configured runtime, resumed from snapshot.
func (a *App) NewController(snapshot *domain.Snapshot) *ayr.Controller {
	return ayr.New(a.Config.Server.URL,
		ayr.WithLogger(a.Logger),
		ayr.WithTimeout(a.Config.Server.Timeout),
		ayr.WithLifecycleHooks(a.hooks),
		ayr.WithSnapshot(snapshot),
	)
}

// Workspaces returns a registry of live controllers for long-running servers.
func (a *App) Workspaces() *session.Registry[*ayr.Controller] {
	return session.NewRegistry(a.Manager, func(key string, snapshot *domain.Snapshot) *ayr.Controller {
		a.Logger.Debug("workspace resumed", "key", key, "phase", snapshot.View.Phase)
		return a.NewController(snapshot)
	})
}

// Act loads the workspace, applies fn to a controller resumed from it and
// saves the result, all under the workspace lock.
// The error of fn is returned after the snapshot is saved, except for
// domain.ErrBusy which leaves storage untouched.
func (a *App) Act(ctx context.Context, key string, fn func(context.Context, *ayr.Controller) error) (domain.View, error) {
	var (
		view      domain.View
		actionErr error
	)
	err := a.Manager.Update(ctx, key, func(ctx context.Context, snapshot *domain.Snapshot) (*domain.Snapshot, error) {
		ctrl := a.NewController(snapshot)
		actionErr = fn(ctx, ctrl)
		view = ctrl.View()
		if actionErr != nil && isBusy(actionErr) {
			return nil, nil
		}
		return ctrl.Snapshot(), nil
	})
	if err != nil {
		return view, err
	}
	return view, actionErr
}

// Close releases the store connection, if any.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("transition", "action", e.Action, "from", e.From, "to", e.To, "tab", e.Tab)
		},
		OnRemoteCall: func(ctx context.Context, e *domain.CallEvent) {
			if e.Err != nil {
				logger.Debug("remote call failed", "op", e.Op, "outcome", e.Outcome, "err", e.Err)
				return
			}
			logger.Debug("remote call", "op", e.Op, "outcome", e.Outcome, "duration", e.Duration)
		},
	}
}
