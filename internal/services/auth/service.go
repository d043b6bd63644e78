package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomchat/internal/dependencies/clock"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
)

// Session represents an authenticated session
type Session struct {
	Token     string
	Principal model.Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles accounts and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	passwordCost    int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	PasswordCost    int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		PasswordCost:    bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = DefaultConfig().PasswordCost
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		passwordCost:    cfg.PasswordCost,
	}
}

// Register creates a regular account and signs it in
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.createUser(ctx, username, password, false)
	if err != nil {
		return nil, err
	}
	return s.createSession(user)
}

// SeedAdmin makes sure an administrator account exists. An existing admin is
// left alone; a regular account with the same name is an error.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) (created bool, err error) {
	existing, err := s.storage.GetUser(ctx, model.Identity(strings.TrimSpace(username)))
	switch {
	case err == nil && existing.IsAdmin:
		return false, nil
	case err == nil:
		return false, ErrUsernameExists
	case !errors.Is(err, model.ErrUserNotFound):
		return false, err
	}

	if _, err := s.createUser(ctx, username, password, true); err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates an account and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.storage.GetUser(ctx, model.Identity(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(user)
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// GetUser returns the account behind a principal
func (s *Service) GetUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	return s.storage.GetUser(ctx, identity)
}

func (s *Service) createUser(ctx context.Context, username, password string, admin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.ErrEmptyUsername
	}
	if password == "" {
		return nil, model.ErrEmptyPassword
	}
	// System notices are attributed to this name
	if strings.EqualFold(username, string(model.SystemAuthor)) {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		Username:     model.Identity(username),
		PasswordHash: string(hash),
		IsAdmin:      admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return user, nil
}

// createSession creates a new session for a user
func (s *Service) createSession(user *model.User) (*Session, error) {
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		Principal: user.Principal(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
