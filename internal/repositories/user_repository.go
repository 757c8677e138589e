package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intdb "smartbus/internal/db"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type UserRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

// Create inserts a user and fills in its id. Emails are stored lowercased.
// A duplicate email surfaces as domain.ConflictError wrapping the driver error.
func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	insert := `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	args := []any{u.Username, u.Email, u.PasswordHash, u.CreatedAt}

	var err error
	if r.Dialect == intdb.Postgres {
		err = r.DB.QueryRowContext(ctx, r.Dialect.Rebind(insert+` RETURNING id`), args...).Scan(&u.ID)
	} else {
		var res sql.Result
		res, err = r.DB.ExecContext(ctx, insert, args...)
		if err == nil {
			u.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return err
	}
	return nil
}

func (r UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	var created sql.NullTime
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = ?
		LIMIT 1`), strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "user", Err: err}
		}
		return nil, err
	}
	if created.Valid {
		u.CreatedAt = created.Time
	}
	return &u, nil
}

func (r UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT COUNT(1) FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
