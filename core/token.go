package core

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed payload of both access and refresh tokens.
// Access tokens carry the role names held at issuance; refresh tokens omit
// them so every refresh re-reads roles from storage.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID int64    `json:"id"`
	Roles  []string `json:"roles,omitempty"`
}

// TokenProvider signs and verifies compact tokens with a single HMAC key.
// The key is set once at construction and only read afterwards, so the
// provider is safe for concurrent use without locking.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider builds a provider from the configured secret and lifetimes.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// CreateAccessToken issues a short-lived token carrying identity and roles.
func (p *TokenProvider) CreateAccessToken(id int64, username string, roles []string) (string, error) {
	return p.sign(TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.accessTTL)),
		},
		UserID: id,
		Roles:  roles,
	})
}

// CreateRefreshToken issues a longer-lived token carrying identity only.
func (p *TokenProvider) CreateRefreshToken(id int64, username string) (string, error) {
	return p.sign(TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.refreshTTL)),
		},
		UserID: id,
	})
}

func (p *TokenProvider) sign(claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IsValid reports whether token parses, carries a good signature, and has not
// expired. It is total over arbitrary input: malformed strings, foreign keys,
// and unexpected algorithms all collapse to false.
func (p *TokenProvider) IsValid(token string) bool {
	_, err := p.parse(token)
	return err == nil
}

// ExtractID returns the numeric user id embedded in a verifiable token.
func (p *TokenProvider) ExtractID(token string) (int64, error) {
	claims, err := p.parse(token)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	return claims.UserID, nil
}

// ExtractUsername returns the subject embedded in a verifiable token.
func (p *TokenProvider) ExtractUsername(token string) (string, error) {
	claims, err := p.parse(token)
	if err != nil {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

// Claims parses and verifies token, returning its payload.
func (p *TokenProvider) Claims(token string) (*TokenClaims, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (p *TokenProvider) parse(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
