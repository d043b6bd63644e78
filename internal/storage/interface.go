package storage

import (
	"context"

	"github.com/mcoot/roomchat/internal/model"
)

// Storage defines the interface for data persistence. Only accounts are
// durable; rooms live in memory for the lifetime of the process.
type Storage interface {
	// CreateUser inserts a new account, failing with model.ErrUserExists
	// if the username is taken
	CreateUser(ctx context.Context, user *model.User) error
	// SaveUser inserts or replaces an account
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, username model.Identity) (*model.User, error)
	DeleteUser(ctx context.Context, username model.Identity) error
}
