package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// ErrValidation is wrapped by every input validation failure
	ErrValidation = errors.New("validation failed")

	ErrEmptyRoomName = fmt.Errorf("%w: room name is required", ErrValidation)
	ErrEmptyMessage  = fmt.Errorf("%w: message body is required", ErrValidation)
	ErrEmptyUsername = fmt.Errorf("%w: username is required", ErrValidation)
	ErrEmptyPassword = fmt.Errorf("%w: password is required", ErrValidation)

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPassword = errors.New("wrong room password")
	ErrNotInRoom     = errors.New("not a member of this room")
	ErrNoActiveRoom  = errors.New("no active room")

	// Identity errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient privileges")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
