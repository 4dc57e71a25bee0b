package core

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryAuthService implements AuthService over a UserRepository and a
// TokenProvider. All methods are synchronous; only repository calls block.
type RepositoryAuthService struct {
	users  UserRepository
	tokens *TokenProvider
}

func NewRepositoryAuthService(users UserRepository, tokens *TokenProvider) *RepositoryAuthService {
	return &RepositoryAuthService{users: users, tokens: tokens}
}

// Login verifies credentials and issues an access/refresh pair. Missing users,
// archived users, and wrong passwords are indistinguishable to the caller.
func (s *RepositoryAuthService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(u)
}

// Refresh validates the refresh token and mints a brand-new pair from the
// user's current record, so role changes since issuance take effect here.
func (s *RepositoryAuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !s.tokens.IsValid(refreshToken) {
		return TokenPair{}, ErrUnauthorized
	}

	id, err := s.tokens.ExtractID(refreshToken)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return TokenPair{}, err
	}

	return s.issuePair(u)
}

// Describe returns the identity a valid token claims for itself: id, subject,
// and roles as embedded at issuance, plus the token echoed back. It never
// queries storage.
func (s *RepositoryAuthService) Describe(token string) (TokenPair, error) {
	if !s.tokens.IsValid(token) {
		return TokenPair{}, ErrUnauthorized
	}

	claims, err := s.tokens.Claims(token)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	return TokenPair{
		ID:          claims.UserID,
		Username:    claims.Subject,
		Roles:       claims.Roles,
		AccessToken: token,
	}, nil
}

// Authenticate resolves a token into a Principal. The returned roles come
// from storage, not from the token, so revoked or granted roles apply to
// in-flight access tokens immediately.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	if !s.tokens.IsValid(token) {
		return Principal{}, ErrUnauthorized
	}

	username, err := s.tokens.ExtractUsername(token)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, err
	}

	return Principal{
		ID:       u.ID,
		UUID:     u.UUID,
		Username: u.Username,
		Roles:    u.Roles,
	}, nil
}

func (s *RepositoryAuthService) issuePair(u *UserRecord) (TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(u.ID, u.Username, u.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.CreateRefreshToken(u.ID, u.Username)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		ID:           u.ID,
		UUID:         u.UUID,
		Username:     u.Username,
		Roles:        u.Roles,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
