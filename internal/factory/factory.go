package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/dependencies/clock"
	"github.com/mcoot/roomchat/internal/dependencies/random"
	"github.com/mcoot/roomchat/internal/services/auth"
	"github.com/mcoot/roomchat/internal/services/chat"
	"github.com/mcoot/roomchat/internal/services/registry"
	"github.com/mcoot/roomchat/internal/services/roomcode"
	"github.com/mcoot/roomchat/internal/services/session"
	"github.com/mcoot/roomchat/internal/storage"
	"github.com/mcoot/roomchat/internal/storage/memory"
	redisstorage "github.com/mcoot/roomchat/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService *auth.Service
	Registry    *registry.Registry
	Sessions    *session.Store
	Hubs        *channel.HubManager
	Gateway     *chat.Gateway

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RegistryConfig holds room settings (optional)
	// If zero value, defaults to registry.DefaultConfig()
	RegistryConfig registry.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// Admin is an administrator account created at startup
type Admin struct {
	Username string
	Password string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Use default configs if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	regCfg := cfg.RegistryConfig
	if regCfg.TranscriptLimit == 0 {
		regCfg = registry.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), authCfg, regCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, regCfg registry.Config, logger *slog.Logger) *App {
	hubs := channel.NewHubManager(response.EncodeEvent, logger)
	reg := registry.New(roomcode.New(rnd), hubs, clk, regCfg, logger)
	sessions := session.New(logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		AuthService: auth.New(store, clk, authCfg),
		Registry:    reg,
		Sessions:    sessions,
		Hubs:        hubs,
		Gateway:     chat.New(reg, sessions, hubs, logger),
		Logger:      logger,
	}
}

// SeedAdmins makes sure every configured administrator account exists
func (a *App) SeedAdmins(ctx context.Context, admins []Admin) error {
	for _, admin := range admins {
		created, err := a.AuthService.SeedAdmin(ctx, admin.Username, admin.Password)
		if err != nil {
			return fmt.Errorf("seed admin %q: %w", admin.Username, err)
		}
		if created {
			a.Logger.Info("administrator account created", slog.String("username", admin.Username))
		}
	}
	return nil
}

// Close releases the storage backend
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
