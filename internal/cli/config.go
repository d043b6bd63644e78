package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config is where the client finds a roomchat server and which account it
// acts as. Token is the session token issued by "user login" or "user
// register"; it is kept in TokenFile between invocations.
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string // text or json
	Verbose   bool
}

// DefaultConfig reads ROOMCHAT_SERVER, ROOMCHAT_TOKEN and ROOMCHAT_TOKEN_FILE
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("ROOMCHAT_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("ROOMCHAT_TOKEN"),
		TokenFile: getEnvOrDefault("ROOMCHAT_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// LoadToken falls back to the saved session token when none was given.
// A missing token file means the user has not logged in yet.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken remembers the session token for later commands
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

// ClearToken forgets the saved token after logout
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WebSocketURL is the chat endpoint used by "roomchat chat"
func (c *Config) WebSocketURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/v1/ws"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roomchat/token"
	}
	return filepath.Join(home, ".roomchat", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
