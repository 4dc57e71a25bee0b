package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte("unit-test-secret"), time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	p := testTokenProvider()

	token, err := p.CreateAccessToken(42, "alice", []string{RoleAdmin, RoleSubscriber})
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact three-segment token, got %q", token)
	}
	if !p.IsValid(token) {
		t.Fatalf("freshly issued token must validate")
	}

	id, err := p.ExtractID(token)
	if err != nil || id != 42 {
		t.Fatalf("ExtractID = %d, %v; want 42, nil", id, err)
	}
	username, err := p.ExtractUsername(token)
	if err != nil || username != "alice" {
		t.Fatalf("ExtractUsername = %q, %v; want alice, nil", username, err)
	}

	claims, err := p.Claims(token)
	if err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != RoleAdmin {
		t.Fatalf("unexpected roles in claims: %v", claims.Roles)
	}
}

func TestRefreshTokenCarriesNoRoles(t *testing.T) {
	p := testTokenProvider()

	token, err := p.CreateRefreshToken(7, "bob")
	if err != nil {
		t.Fatalf("CreateRefreshToken error: %v", err)
	}
	claims, err := p.Claims(token)
	if err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	if len(claims.Roles) != 0 {
		t.Fatalf("refresh token must not embed roles, got %v", claims.Roles)
	}
	if claims.UserID != 7 || claims.Subject != "bob" {
		t.Fatalf("unexpected identity claims: id=%d sub=%q", claims.UserID, claims.Subject)
	}
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	expired := NewTokenProvider([]byte("unit-test-secret"), -time.Minute, -time.Minute)

	token, err := expired.CreateAccessToken(1, "alice", []string{RoleSubscriber})
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	p := testTokenProvider()
	if p.IsValid(token) {
		t.Fatalf("token with past expiry must be invalid")
	}
	if _, err := p.ExtractID(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("ExtractID on expired token: got %v, want ErrTokenMalformed", err)
	}
}

func TestIsValidIsTotal(t *testing.T) {
	p := testTokenProvider()

	foreign := NewTokenProvider([]byte("some-other-key"), time.Hour, time.Hour)
	foreignToken, err := foreign.CreateAccessToken(1, "mallory", []string{RoleAdmin})
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	inputs := []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c",
		"....",
		strings.Repeat("x", 4096),
		"eyJhbGciOiJub25lIn0.eyJzdWIiOiJhbGljZSJ9.",
		"\x00\x01\x02",
		foreignToken,
	}

	for _, in := range inputs {
		if p.IsValid(in) {
			t.Fatalf("IsValid(%.32q) = true, want false", in)
		}
		if _, err := p.ExtractUsername(in); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("ExtractUsername(%.32q): got %v, want ErrTokenMalformed", in, err)
		}
	}
}

func TestTokensFromSameInstantBothValidate(t *testing.T) {
	p := testTokenProvider()

	a, err := p.CreateAccessToken(9, "carol", []string{RoleJournalist})
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}
	b, err := p.CreateAccessToken(9, "carol", []string{RoleJournalist})
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}
	if !p.IsValid(a) || !p.IsValid(b) {
		t.Fatalf("both tokens issued for the same input must validate")
	}
}
