package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/models"
)

const adminUserColumns = `id, email, password_hash, name, is_active, last_login_at, created_at, updated_at`

type AdminUserRepository struct {
	db *sqlx.DB
}

func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`
		SELECT `+adminUserColumns+`
		FROM admin_users
		WHERE LOWER(email) = LOWER(?)
	`), email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id int) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+adminUserColumns+` FROM admin_users WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO admin_users (email, password_hash, name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	if err := r.db.QueryRowxContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.IsActive, now, now).Scan(&user.ID); err != nil {
		return err
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *AdminUserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE admin_users SET last_login_at = ?, updated_at = ? WHERE id = ?`), at.UTC(), at.UTC(), id)
	return err
}
