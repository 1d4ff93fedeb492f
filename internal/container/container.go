package container

import (
	"context"
	"fmt"

	"postpulse/internal/config"
	"postpulse/internal/metrics"
	"postpulse/internal/repository"
	"postpulse/internal/repository/memory"
	"postpulse/internal/service"
	"postpulse/internal/service/auth"
	"postpulse/pkg/database"
	"postpulse/pkg/logger"
	"postpulse/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client        // nil when caching is disabled
	DB          *database.PostgresDB // nil when running on the in-memory store
	Repos       *repository.Repositories
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Auth        service.ViewerAuthenticator
	Services    *service.Services
}

// New creates a new dependency injection container. Redis is optional and a
// failed connection only disables caching; a configured database that cannot
// be reached is fatal.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	var (
		db    *database.PostgresDB
		repos *repository.Repositories
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.DatabaseReadURL)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repos = repository.NewPostgresRepositories(db)
		logger.Info("Database connection pool initialized successfully")
	} else {
		logger.Warn("DATABASE_URL not configured, using in-memory store")
		repos = memory.NewStore().Repositories()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	background := service.NewBackground(cfg.Tracking.BackgroundTimeout, logger, m)
	services := service.NewServices(service.Deps{
		Repos:      repos,
		Cache:      redisClient,
		Config:     cfg.Tracking,
		Logger:     logger,
		Metrics:    m,
		Background: background,
	})

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not configured, likes are disabled and every reader is anonymous")
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		DB:          db,
		Repos:       repos,
		Registry:    registry,
		Metrics:     m,
		Auth:        auth.NewService(cfg.AuthJWTSecret, logger),
		Services:    services,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// CacheHealth returns the cache ping, or nil when caching is disabled
func (c *Container) CacheHealth() func(ctx context.Context) error {
	if c.RedisClient == nil {
		return nil
	}
	return c.RedisClient.Health
}

// StoreHealth pings the durable store
func (c *Container) StoreHealth(ctx context.Context) error {
	if c.Repos.Health == nil {
		return nil
	}
	return c.Repos.Health(ctx)
}
