package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/travel-agency/internal/auth"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

var _ auth.RepositoryAPI = (*Repository)(nil)

// GetCredentials returns inactive users too so the service can tell a wrong
// password from a disabled account.
func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := r.db.Rebind(`SELECT id, password_hash, is_active FROM users WHERE email = ?`)
	if err := r.db.GetContext(ctx, &creds, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &creds, nil
}

func (r *Repository) GetUserWithPermissions(ctx context.Context, userID int64) (*auth.User, error) {
	var row struct {
		ID    int64  `db:"id"`
		Email string `db:"email"`
		Name  string `db:"name"`
	}
	query := r.db.Rebind(`SELECT id, email, name FROM users WHERE id = ? AND is_active = ?`)
	if err := r.db.GetContext(ctx, &row, query, userID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	permissions := []string{}
	permQuery := r.db.Rebind(`SELECT p.name
		FROM permissions p
		JOIN user_permissions up ON p.id = up.permission_id
		WHERE up.user_id = ?
		ORDER BY p.name`)
	if err := r.db.SelectContext(ctx, &permissions, permQuery, userID); err != nil {
		return nil, fmt.Errorf("get user permissions: %w", err)
	}

	return &auth.User{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		Permissions: permissions,
	}, nil
}
