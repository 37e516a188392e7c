// Package app wires configuration, storage, cache, aggregation, and the HTTP
// API into a runnable service.
package app

import (
	"context"
	"fmt"

	"github.com/sahistory/timeline/internal/aggregator"
	"github.com/sahistory/timeline/internal/auth"
	"github.com/sahistory/timeline/internal/cache"
	"github.com/sahistory/timeline/internal/config"
	"github.com/sahistory/timeline/internal/httpapi"
	"github.com/sahistory/timeline/internal/logging"
	"github.com/sahistory/timeline/internal/repository"
	"github.com/sahistory/timeline/internal/sources"
)

// App holds the assembled service and its closable resources.
type App struct {
	cfg    *config.Config
	logger *logging.Logger
	repo   *repository.Postgres
	cache  cache.Cache
	server *httpapi.Server
}

// New builds the service from configuration. The content repository must be
// reachable at startup; the cache degrades to in-memory when Redis is not.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	repo, err := repository.NewPostgres(repository.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: repository.DefaultConfig().ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("content repository: %w", err)
	}

	if err := repo.Migrate(context.Background()); err != nil {
		// Production schema is owned by the CMS; the connecting role may lack
		// DDL rights there.
		logger.Warn("Failed to run content migrations, assuming externally managed schema",
			logging.WithField("error", err.Error()))
	}

	var c cache.Cache
	if cfg.Cache.Backend == "redis" {
		redisCache, err := cache.NewRedis(cache.RedisConfig{Addr: cfg.Cache.RedisAddr}, cfg.Cache.TTL)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory cache",
				logging.WithField("error", err.Error()))
			c = cache.NewMemory(cfg.Cache.TTL)
		} else {
			c = redisCache
		}
	} else {
		c = cache.NewMemory(cfg.Cache.TTL)
	}

	feeds := sources.NewFeedSource(cfg.Feeds.URLs, logger)
	if feeds != nil {
		logger.Info("Commemoration feeds enabled", logging.WithField("count", len(cfg.Feeds.URLs)))
	}

	agg := aggregator.New(repo, feeds, c, cfg.Cache.TTL, logger)

	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	server := httpapi.New(agg, auth.NewMiddleware(authService), logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		cache:  c,
		server: server,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	return a.server.Start(a.cfg.Server.HTTPAddr)
}

// Shutdown stops the server and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	if mc, ok := a.cache.(*cache.MemoryCache); ok {
		mc.Stop()
	}
	if rc, ok := a.cache.(*cache.RedisCache); ok {
		rc.Close()
	}
	a.repo.Close()

	return err
}
