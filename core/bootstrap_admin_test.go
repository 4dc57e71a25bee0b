package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapAdminCreatesAdminOnce(t *testing.T) {
	repo := newFakeUserRepo()
	passwordPath := filepath.Join(t.TempDir(), "admin.secret")
	cfg := Config{
		BootstrapAdminEnabled:    true,
		InitialAdminPasswordPath: passwordPath,
	}
	ctx := context.Background()

	if err := BootstrapAdmin(ctx, repo, cfg); err != nil {
		t.Fatalf("BootstrapAdmin error: %v", err)
	}

	admin, err := repo.FindByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if !containsRole(admin.Roles, RoleAdmin) {
		t.Fatalf("bootstrap user must hold ADMIN, got %v", admin.Roles)
	}

	data, err := os.ReadFile(passwordPath)
	if err != nil {
		t.Fatalf("password file not written: %v", err)
	}
	password := strings.TrimSpace(string(data))
	if len(password) != 32 {
		t.Fatalf("generated password length = %d, want 32", len(password))
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		t.Fatalf("written password must match stored hash")
	}

	// Idempotent: second run creates nothing.
	before := len(repo.users)
	if err := BootstrapAdmin(ctx, repo, cfg); err != nil {
		t.Fatalf("second BootstrapAdmin error: %v", err)
	}
	if len(repo.users) != before {
		t.Fatalf("second run must not create users")
	}
}

func TestBootstrapAdminDisabled(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := Config{BootstrapAdminEnabled: false}

	if err := BootstrapAdmin(context.Background(), repo, cfg); err != nil {
		t.Fatalf("BootstrapAdmin error: %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("disabled bootstrap must not create users")
	}
}
