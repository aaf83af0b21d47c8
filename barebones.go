// Package barebones wires the player lookup services together: logging, the
// lookup cache, the Mojang client and the admin API.
package barebones

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/df-mc/atomic"
	"github.com/gofrs/uuid"
	"github.com/haveachin/barebones/internal/admin"
	"github.com/haveachin/barebones/internal/config"
	"github.com/haveachin/barebones/internal/logging"
	"github.com/haveachin/barebones/pkg/auth"
	"github.com/haveachin/barebones/pkg/future"
	"github.com/haveachin/barebones/pkg/profile"
	"github.com/haveachin/barebones/pkg/storage"
	"github.com/haveachin/barebones/pkg/storage/memory"
	"github.com/haveachin/barebones/pkg/storage/redis"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

type Stack struct {
	logger *zap.Logger
	cache  storage.Storage
	auth   *atomic.Value[*auth.Service]
	admin  *admin.Server

	mu  sync.Mutex
	cfg config.Config
}

func New(cfg config.Config) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Environment, cfg.Logging.Encoding)
	if err != nil {
		return nil, err
	}

	cache, err := newCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	svc, err := newAuth(cfg.Auth, cache, logger)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}

	s := &Stack{
		logger: logger,
		cache:  cache,
		auth:   atomic.NewValue(svc),
		cfg:    cfg,
	}

	if cfg.Admin.Bind != "" {
		s.admin = admin.New(admin.Config{
			Bind:           cfg.Admin.Bind,
			AllowedOrigins: cfg.Admin.AllowedOrigins,
			AllowedMethods: cfg.Admin.AllowedMethods,
			AllowedHeaders: cfg.Admin.AllowedHeaders,
		}, s, logger)
	}

	return s, nil
}

func newCache(cfg config.CacheConfig, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case config.CacheDriverMemory:
		s := memory.New(cfg.Memory.Size, cfg.Memory.TTL)
		if err := s.StartJanitor(cfg.Memory.Janitor); err != nil {
			return nil, fmt.Errorf("start cache janitor: %w", err)
		}
		return s, nil
	case config.CacheDriverRedis:
		s, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			logger.Warn("redis cache is not reachable yet", zap.Error(err))
		}
		return s, nil
	default:
		return nil, nil
	}
}

func newAuth(cfg config.AuthConfig, cache storage.Storage, logger *zap.Logger) (*auth.Service, error) {
	return auth.New(auth.Config{
		AuthURL:             cfg.AuthURL,
		UserProfileURL:      cfg.UserProfileURL,
		MinecraftProfileURL: cfg.MinecraftProfileURL,
		Timeout:             cfg.Timeout,
		Workers:             cfg.Workers,
		MaxResponseSize:     cfg.MaxResponseSize,
		UserAgent:           cfg.UserAgent,
		Cache:               cache,
		Logger:              logger,
	})
}

func (s *Stack) Logger() *zap.Logger {
	return s.logger
}

// Auth returns the current Mojang client. Reload swaps it out, so callers
// should not hold on to it.
func (s *Stack) Auth() *auth.Service {
	return s.auth.Load()
}

// Reload applies the auth settings of cfg. Changes to logging, the cache or
// the admin API only take effect after a restart.
func (s *Stack) Reload(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := newAuth(cfg.Auth, s.cache, s.logger)
	if err != nil {
		return err
	}
	s.auth.Store(svc)

	if cfg.Logging != s.cfg.Logging {
		s.logger.Warn("logging changes require a restart")
	}
	if cfg.Cache != s.cfg.Cache {
		s.logger.Warn("cache changes require a restart")
	}
	if !sameAdmin(cfg.Admin, s.cfg.Admin) {
		s.logger.Warn("admin changes require a restart")
	}

	s.cfg = cfg
	s.logger.Info("reloaded auth service",
		zap.Duration("timeout", cfg.Auth.Timeout),
		zap.Int("workers", cfg.Auth.Workers),
	)
	return nil
}

// Serve runs the admin API, if one is configured, until ctx is done.
func (s *Stack) Serve(ctx context.Context) error {
	if s.admin == nil {
		<-ctx.Done()
		return nil
	}
	return s.admin.ListenAndServe(ctx)
}

func (s *Stack) Close() error {
	var err error
	if s.cache != nil {
		err = multierr.Append(err, s.cache.Close())
	}
	s.logger.Sync()
	return err
}

func (s *Stack) LookupUUID(ctx context.Context, username string) *future.Future[uuid.UUID] {
	return s.Auth().LookupUUID(ctx, username)
}

func (s *Stack) SkinByUUID(ctx context.Context, id uuid.UUID) *future.Future[profile.PlayerTextures] {
	return s.Auth().SkinByUUID(ctx, id)
}

func (s *Stack) SkinByName(ctx context.Context, username string) *future.Future[profile.PlayerTextures] {
	return s.Auth().SkinByName(ctx, username)
}

func sameAdmin(a, b config.AdminConfig) bool {
	return a.Bind == b.Bind &&
		equalStrings(a.AllowedOrigins, b.AllowedOrigins) &&
		equalStrings(a.AllowedMethods, b.AllowedMethods) &&
		equalStrings(a.AllowedHeaders, b.AllowedHeaders)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
