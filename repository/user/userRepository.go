// repository/user/userRepository.go
package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samdani91/Smart-Library-System/model"
)

// ErrDuplicateEmail is returned when the unique email constraint rejects an
// insert or update.
var ErrDuplicateEmail = errors.New("user: email already registered")

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, name, email string, role model.UserRole) (*model.User, error) {
	const q = `
		INSERT INTO users (id, name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at`

	u := model.User{ID: uuid.NewString(), Name: name, Email: email, Role: role}

	err := r.db.QueryRowContext(ctx, q, u.ID, name, email, role).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapUnique(err)
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Update(ctx context.Context, id, name, email string) (*model.User, error) {
	const q = `
		UPDATE users
		SET name = $2, email = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, role, created_at, updated_at`

	var u model.User
	err := r.db.QueryRowContext(ctx, q, id, name, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapUnique(err)
	}
	return &u, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}
