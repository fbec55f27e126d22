package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// uniqueViolation is the SQLSTATE for a UNIQUE constraint failure.
const uniqueViolation = "23505"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// UserRepository implements ports.UserRepository on the users table.
type UserRepository struct {
	db    DBTX
	newID func() string
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, newID: uuid.NewString}
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query :=
		`INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		r.newID(), user.Username, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt))
	if err != nil {
		return nil, mapError("insert user", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("find user", err)
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, mapError("find user", err)
	}
	return user, nil
}

// Update sets only the columns named in patch, in a single statement.
func (r *UserRepository) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	sets, args := updateClauses(patch, time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError("update user", err)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("delete user", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list users", err)
	}
	return users, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	p, ok := r.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.PingContext(ctx); err != nil {
		return domain.StorageError("ping postgres", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

// updateClauses returns the SET fragments and their positional arguments.
// updated_at is always the last fragment.
func updateClauses(patch ports.UserPatch, now time.Time) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	add("updated_at", now)
	return sets, args
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrUserExists
	}
	return domain.StorageError(op, err)
}
