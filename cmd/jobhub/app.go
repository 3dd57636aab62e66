package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/api"
	"github.com/jobhub/identity/internal/api/handler"
	"github.com/jobhub/identity/internal/core/ports"
	"github.com/jobhub/identity/internal/core/service"
	"github.com/jobhub/identity/internal/infrastructure/config"
	"github.com/jobhub/identity/internal/infrastructure/db/memory"
	mongostore "github.com/jobhub/identity/internal/infrastructure/db/mongo"
	rediscache "github.com/jobhub/identity/internal/infrastructure/db/redis"
	"github.com/jobhub/identity/pkg/logger"
)

// app holds the wired services and the resources to release on exit.
type app struct {
	store    ports.CredentialStore
	hasher   *service.BcryptHasher
	registry *service.RoleRegistry
	deps     api.Deps
	closers  []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "jobhub-identity",
	})
	return cfg, log, nil
}

// openStore connects the configured credential store and registers its
// readiness check.
func openStore(ctx context.Context, cfg *config.Config, a *app) error {
	log := logger.Component("store")

	switch cfg.StoreDriver {
	case config.StoreMemory:
		a.store = memory.New()
		log.Warn().Msg("using in-memory credential store; data is lost on exit")
		return nil

	case config.StoreMongo:
		store, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "jobhub-identity",
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.store = store
		a.deps.Checks = append(a.deps.Checks, handler.HealthCheck{Name: "mongodb", Check: store.Ping})
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
		return nil
	}
	return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openCache returns the Redis permission cache, or nil when disabled.
func openCache(ctx context.Context, cfg *config.Config, a *app) (ports.PermissionCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	cache, err := rediscache.Open(ctx, rediscache.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
		TTL:  cfg.Redis.CacheTTL,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return cache.Close() })
	a.deps.Checks = append(a.deps.Checks, handler.HealthCheck{Name: "redis", Check: cache.Ping})
	cacheLog := logger.Component("cache")
	cacheLog.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.CacheTTL).Msg("permission cache enabled")
	return cache, nil
}

// buildApp wires every service on top of the configured store and cache.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		_ = a.Close(ctx)
		return nil, err
	}

	if err := openStore(ctx, cfg, a); err != nil {
		return fail(err)
	}
	cache, err := openCache(ctx, cfg, a)
	if err != nil {
		return fail(err)
	}

	hasher, err := service.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return fail(err)
	}
	codec, err := service.NewJWTCodec(service.TokenCodecConfig{
		Issuer:  cfg.JWT.Issuer,
		Access:  service.SigningContext{Secret: cfg.JWT.AccessSecret, TTL: cfg.JWT.AccessTTL},
		Refresh: service.SigningContext{Secret: cfg.JWT.RefreshSecret, TTL: cfg.JWT.RefreshTTL},
	})
	if err != nil {
		return fail(err)
	}

	a.hasher = hasher
	a.registry = service.NewRoleRegistry(a.store, logger.Component("role_registry"))
	auth, err := service.NewAuthService(a.store, hasher, codec, a.registry, logger.Component("auth"))
	if err != nil {
		return fail(err)
	}
	a.deps.Auth = auth
	a.deps.Authz = service.NewAuthorizationEngine(a.store, cache, logger.Component("authz"))
	a.deps.Registrations = service.NewRegistrationWorkflow(a.store, a.registry, cache, logger.Component("registrations"))
	a.deps.Access = service.NewAccessAdminService(a.store, a.registry, cache, logger.Component("access"))
	a.deps.Users = service.NewUserAdminService(a.store, hasher, a.registry, cache, logger.Component("users"))
	a.deps.Log = log
	return a, nil
}

func (a *app) seeder() *service.Seeder {
	return service.NewSeeder(a.store, a.hasher, a.registry, logger.Component("seed"))
}

func adminAccount(cfg *config.Config) service.AdminAccount {
	return service.AdminAccount{
		Email:       cfg.Seed.AdminEmail,
		Password:    cfg.Seed.AdminPassword,
		DisplayName: cfg.Seed.AdminName,
	}
}

