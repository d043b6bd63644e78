package model

import "time"

// User is a registered account held in the durable store
type User struct {
	Username     Identity  `json:"username"`
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is what the identity provider resolves a request to
type Principal struct {
	Identity Identity
	IsAdmin  bool
}

// Principal returns the identity the user authenticates as
func (u *User) Principal() Principal {
	return Principal{Identity: u.Username, IsAdmin: u.IsAdmin}
}
