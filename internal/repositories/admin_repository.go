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

type AdminRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

// FindByEmail matches the admin email case-insensitively and joins the
// company name.
func (r AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT a.id, a.email, a.password_hash, a.company_id, COALESCE(c.company_name, '')
		FROM admins a
		LEFT JOIN companies c ON c.id = a.company_id
		WHERE LOWER(a.email) = LOWER(?)
		LIMIT 1`), strings.TrimSpace(email)).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CompanyID, &a.CompanyName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "admin", Err: err}
		}
		return nil, err
	}
	return &a, nil
}
