// Package config loads server settings from an optional YAML file, an
// optional .env file and ROOMCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mcoot/roomchat/internal/api"
	"github.com/mcoot/roomchat/internal/api/ws"
	"github.com/mcoot/roomchat/internal/factory"
	"github.com/mcoot/roomchat/internal/services/auth"
	"github.com/mcoot/roomchat/internal/services/registry"
	redisstorage "github.com/mcoot/roomchat/internal/storage/redis"
)

// EnvPrefix is prepended to every environment override, e.g. ROOMCHAT_SERVER_PORT
const EnvPrefix = "ROOMCHAT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Rooms     RoomsConfig     `mapstructure:"rooms"`
	Auth      AuthConfig      `mapstructure:"auth"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	// Admins are "name:password" pairs created at startup
	Admins []string `mapstructure:"admins"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type RoomsConfig struct {
	TranscriptLimit int `mapstructure:"transcript_limit"`
}

type AuthConfig struct {
	SessionDuration time.Duration `mapstructure:"session_duration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type WebSocketConfig struct {
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Load reads configuration. An empty path searches the working directory and
// ./config for config.yaml and carries on with defaults when none exists; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	server := api.DefaultServerConfig()
	v.SetDefault("server.host", server.Host)
	v.SetDefault("server.port", server.Port)
	v.SetDefault("server.read_timeout", server.ReadTimeout)
	v.SetDefault("server.write_timeout", server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", server.ShutdownTimeout)

	redis := redisstorage.DefaultConfig()
	v.SetDefault("storage.type", factory.StorageTypeMemory)
	v.SetDefault("storage.redis.url", redis.URL)
	v.SetDefault("storage.redis.pool_size", redis.PoolSize)
	v.SetDefault("storage.redis.min_idle_conns", redis.MinIdleConns)

	v.SetDefault("rooms.transcript_limit", registry.DefaultConfig().TranscriptLimit)

	v.SetDefault("auth.session_duration", auth.DefaultConfig().SessionDuration)
	v.SetDefault("auth.cleanup_interval", "10m")

	sock := ws.DefaultConfig()
	v.SetDefault("websocket.read_limit", sock.ReadLimit)
	v.SetDefault("websocket.ping_period", sock.PingPeriod)
	v.SetDefault("websocket.pong_wait", sock.PongWait)
	v.SetDefault("websocket.write_wait", sock.WriteWait)
	v.SetDefault("websocket.send_buffer", sock.SendBuffer)
	v.SetDefault("websocket.allowed_origins", []string{})

	v.SetDefault("admins", []string{})
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case factory.StorageTypeMemory, factory.StorageTypeRedis:
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q",
			factory.StorageTypeMemory, factory.StorageTypeRedis, c.Storage.Type)
	}
	if c.Storage.Type == factory.StorageTypeRedis && c.Storage.Redis.URL == "" {
		return errors.New("storage.redis.url is required when storage.type is redis")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Rooms.TranscriptLimit <= 0 {
		return fmt.Errorf("rooms.transcript_limit must be positive, got %d", c.Rooms.TranscriptLimit)
	}
	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return errors.New("websocket.ping_period must be shorter than websocket.pong_wait")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket.send_buffer must be positive, got %d", c.WebSocket.SendBuffer)
	}
	if _, err := c.AdminAccounts(); err != nil {
		return err
	}
	return nil
}

// AdminAccounts parses the admins list
func (c *Config) AdminAccounts() ([]factory.Admin, error) {
	admins := make([]factory.Admin, 0, len(c.Admins))
	for _, entry := range c.Admins {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, password, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("admin entry %q must look like name:password", entry)
		}
		admins = append(admins, factory.Admin{Username: name, Password: password})
	}
	return admins, nil
}

func (c *Config) HTTPServer() api.ServerConfig {
	return api.ServerConfig{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}
}

func (c *Config) WebSocketSettings() ws.Config {
	return ws.Config{
		ReadLimit:      c.WebSocket.ReadLimit,
		PongWait:       c.WebSocket.PongWait,
		PingPeriod:     c.WebSocket.PingPeriod,
		WriteWait:      c.WebSocket.WriteWait,
		SendBuffer:     c.WebSocket.SendBuffer,
		AllowedOrigins: c.WebSocket.AllowedOrigins,
	}
}

// Factory builds the application factory settings
func (c *Config) Factory() factory.Config {
	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = c.Auth.SessionDuration

	regCfg := registry.DefaultConfig()
	regCfg.TranscriptLimit = c.Rooms.TranscriptLimit

	fc := factory.Config{
		AuthConfig:     authCfg,
		RegistryConfig: regCfg,
		StorageType:    c.Storage.Type,
	}
	if c.Storage.Type == factory.StorageTypeRedis {
		fc.RedisConfig = &redisstorage.Config{
			URL:          c.Storage.Redis.URL,
			PoolSize:     c.Storage.Redis.PoolSize,
			MinIdleConns: c.Storage.Redis.MinIdleConns,
		}
	}
	return fc
}
