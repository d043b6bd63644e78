package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomchat/internal/factory"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, factory.StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, 100, cfg.Rooms.TranscriptLimit)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, 54*time.Second, cfg.WebSocket.PingPeriod)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Empty(t, cfg.Admins)

	fc := cfg.Factory()
	assert.Nil(t, fc.RedisConfig)
	assert.Equal(t, 100, fc.RegistryConfig.TranscriptLimit)
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "roomchat.yaml", `
server:
  port: 9090
  shutdown_timeout: 5s
storage:
  type: redis
  redis:
    url: redis://cache:6379/2
    pool_size: 4
rooms:
  transcript_limit: 25
websocket:
  ping_period: 20s
  pong_wait: 30s
  allowed_origins:
    - https://chat.example.com
admins:
  - root:hunter2
  - ops:swordfish
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer().ShutdownTimeout)
	assert.Equal(t, 25, cfg.Rooms.TranscriptLimit)

	sock := cfg.WebSocketSettings()
	assert.Equal(t, 20*time.Second, sock.PingPeriod)
	assert.Equal(t, []string{"https://chat.example.com"}, sock.AllowedOrigins)

	fc := cfg.Factory()
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/2", fc.RedisConfig.URL)
	assert.Equal(t, 4, fc.RedisConfig.PoolSize)

	admins, err := cfg.AdminAccounts()
	require.NoError(t, err)
	assert.Equal(t, []factory.Admin{
		{Username: "root", Password: "hunter2"},
		{Username: "ops", Password: "swordfish"},
	}, admins)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "roomchat.yaml", "server:\n  port: 9090\n")
	t.Setenv("ROOMCHAT_SERVER_PORT", "7070")
	t.Setenv("ROOMCHAT_ROOMS_TRANSCRIPT_LIMIT", "10")
	t.Setenv("ROOMCHAT_AUTH_SESSION_DURATION", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Rooms.TranscriptLimit)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionDuration)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage", "storage:\n  type: etcd\n"},
		{"zero transcript", "rooms:\n  transcript_limit: 0\n"},
		{"ping after pong", "websocket:\n  ping_period: 90s\n"},
		{"malformed admin", "admins:\n  - root\n"},
		{"admin without password", "admins:\n  - 'root:'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "roomchat.yaml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestAdminAccountsSkipsBlankEntries(t *testing.T) {
	cfg := &Config{Admins: []string{" ", "root:pa:ss"}}

	admins, err := cfg.AdminAccounts()
	require.NoError(t, err)
	assert.Equal(t, []factory.Admin{{Username: "root", Password: "pa:ss"}}, admins)
}
