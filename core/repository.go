package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord is the stored projection of a user, including the password hash.
type UserRecord struct {
	ID           int64
	UUID         uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Archived     bool
	Roles        []string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for users and their roles.
// Lookup methods treat archived users as absent so outstanding tokens for an
// archived account stop resolving.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByID(ctx context.Context, id int64) (*UserRecord, error)
	Create(ctx context.Context, name, username, passwordHash string, roles []string) (*UserRecord, error)
	Update(ctx context.Context, id int64, name, username, passwordHash string) (*UserRecord, error)
	Archive(ctx context.Context, id int64) error
	HasAdmin(ctx context.Context) (bool, error)
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userSelect = `
SELECT u.id, u.uuid, u.name, u.username, u.password_hash, u.is_archived, u.created_at,
       COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
`

func (repo *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	q := userSelect + `WHERE u.username=$1 AND NOT u.is_archived GROUP BY u.id`
	return repo.scanUser(repo.db.QueryRow(ctx, q, username))
}

func (repo *PgUserRepository) FindByID(ctx context.Context, id int64) (*UserRecord, error) {
	q := userSelect + `WHERE u.id=$1 AND NOT u.is_archived GROUP BY u.id`
	return repo.scanUser(repo.db.QueryRow(ctx, q, id))
}

// Create inserts the user row and its roles in one transaction. The external
// UUID is generated here; retrying on the (vanishingly unlikely) uuid
// collision is folded into the unique-violation mapping.
func (repo *PgUserRepository) Create(ctx context.Context, name, username, passwordHash string, roles []string) (*UserRecord, error) {
	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u := UserRecord{
		UUID:     uuid.New(),
		Name:     name,
		Username: username,
		Roles:    roles,
	}

	const insertUser = `
INSERT INTO users (uuid, name, username, password_hash, is_archived)
VALUES ($1,$2,$3,$4,false)
RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertUser, u.UUID, name, username, passwordHash).
		Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}

	for _, role := range roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			u.ID, role); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash
	return &u, nil
}

func (repo *PgUserRepository) Update(ctx context.Context, id int64, name, username, passwordHash string) (*UserRecord, error) {
	const q = `
UPDATE users SET name=$2, username=$3, password_hash=$4
WHERE id=$1 AND NOT is_archived
RETURNING id`
	var updated int64
	if err := repo.db.QueryRow(ctx, q, id, name, username, passwordHash).Scan(&updated); err != nil {
		return nil, mapPgError(err)
	}
	return repo.FindByID(ctx, id)
}

// Archive soft-deletes a user; subsequent lookups treat the user as absent.
func (repo *PgUserRepository) Archive(ctx context.Context, id int64) error {
	tag, err := repo.db.Exec(ctx, `UPDATE users SET is_archived=true WHERE id=$1 AND NOT is_archived`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (repo *PgUserRepository) HasAdmin(ctx context.Context) (bool, error) {
	const q = `SELECT 1 FROM user_roles WHERE role=$1 LIMIT 1`
	var one int
	if err := repo.db.QueryRow(ctx, q, RoleAdmin).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (repo *PgUserRepository) scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.UUID, &u.Name, &u.Username, &u.PasswordHash,
		&u.Archived, &u.CreatedAt, &u.Roles); err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

// mapPgError converts driver errors into the package's typed errors.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateUsername
	}
	return err
}
