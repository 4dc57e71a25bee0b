package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserSummary is the public projection returned by user endpoints.
type UserSummary struct {
	ID        int64     `json:"id"`
	UUID      uuid.UUID `json:"uuid"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserInput carries the fields accepted on registration and admin creation.
type CreateUserInput struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (in CreateUserInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return ErrValidation
	}
	if len(in.Name) > 255 || len(in.Username) > 255 {
		return ErrValidation
	}
	if in.Password != in.PasswordConfirmation {
		return ErrPasswordMismatch
	}
	return nil
}

// UserService handles user CRUD around the auth core.
type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates a user holding only the SUBSCRIBER role.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (UserSummary, error) {
	return s.Create(ctx, in, RoleSubscriber)
}

// Create creates a user with the given role; SUBSCRIBER is always included.
func (s *UserService) Create(ctx context.Context, in CreateUserInput, role string) (UserSummary, error) {
	if err := in.validate(); err != nil {
		return UserSummary{}, err
	}

	roles := []string{RoleSubscriber}
	if role != "" && role != RoleSubscriber {
		roles = append(roles, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserSummary{}, err
	}

	u, err := s.users.Create(ctx, in.Name, in.Username, string(hash), roles)
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(u), nil
}

// Get returns a user summary by id.
func (s *UserService) Get(ctx context.Context, id int64) (UserSummary, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(u), nil
}

// Update replaces name, username, and password of an existing user.
func (s *UserService) Update(ctx context.Context, id int64, in CreateUserInput) (UserSummary, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return UserSummary{}, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserSummary{}, err
	}

	u, err := s.users.Update(ctx, id, in.Name, in.Username, string(hash))
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(u), nil
}

// Archive soft-deletes a user; their outstanding tokens stop resolving.
func (s *UserService) Archive(ctx context.Context, id int64) error {
	return s.users.Archive(ctx, id)
}

func summarize(u *UserRecord) UserSummary {
	return UserSummary{
		ID:        u.ID,
		UUID:      u.UUID,
		Name:      u.Name,
		Username:  u.Username,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}
