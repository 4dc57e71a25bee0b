package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Role names carried in access-token claims and stored per user.
const (
	RoleAdmin      = "ADMIN"
	RoleJournalist = "JOURNALIST"
	RoleSubscriber = "SUBSCRIBER"
)

// Principal represents an authenticated caller resolved for a single request.
type Principal struct {
	ID       int64
	UUID     uuid.UUID
	Username string
	Roles    []string
}

// HasRole reports whether the principal carries the given role name.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenPair is the identity + token payload returned by login/refresh/validate.
type TokenPair struct {
	ID           int64     `json:"id"`
	UUID         uuid.UUID `json:"uuid"`
	Username     string    `json:"username"`
	Roles        []string  `json:"roles"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a presented token fails validation.
	ErrUnauthorized = errors.New("token is not valid")
	// ErrUserNotFound is returned when a valid token references a user that
	// no longer exists (or has been archived).
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMalformed is returned by claim extractors for unverifiable tokens.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrDuplicateUsername is returned on registration/update conflicts.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrPasswordMismatch is returned when password confirmation differs.
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
	// ErrValidation is returned for missing or oversized request fields.
	ErrValidation = errors.New("invalid request data")
)

// AuthService defines the token lifecycle operations.
type AuthService interface {
	// Login verifies credentials and issues a fresh access/refresh pair.
	Login(ctx context.Context, username, password string) (TokenPair, error)
	// Refresh validates a refresh token and issues a new pair from live user state.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	// Describe echoes the identity embedded in a valid token without touching storage.
	Describe(token string) (TokenPair, error)
	// Authenticate resolves a token into a Principal carrying current roles.
	Authenticate(ctx context.Context, token string) (Principal, error)
}
