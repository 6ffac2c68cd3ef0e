package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/models"
)

const apiKeyColumns = `id, name, service_name, description, encrypted_value, is_active,
	expires_at, created_at, updated_at, created_by, last_accessed_at`

type APIKeyRepository struct {
	db *sqlx.DB
}

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// List returns all keys ordered by name.
func (r *APIKeyRepository) List(ctx context.Context) ([]models.APIKey, error) {
	keys := []models.APIKey{}
	if err := r.db.SelectContext(ctx, &keys, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY name`); err != nil {
		return nil, err
	}
	return keys, nil
}

// ListActive returns keys with is_active set, ordered by name. Expiry is not evaluated.
func (r *APIKeyRepository) ListActive(ctx context.Context) ([]models.APIKey, error) {
	keys := []models.APIKey{}
	if err := r.db.SelectContext(ctx, &keys, `SELECT `+apiKeyColumns+` FROM api_keys WHERE is_active = TRUE ORDER BY name`); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id int) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.GetContext(ctx, &key, r.db.Rebind(`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`), id); err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *APIKeyRepository) GetByName(ctx context.Context, name string) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.GetContext(ctx, &key, r.db.Rebind(`SELECT `+apiKeyColumns+` FROM api_keys WHERE name = ?`), name); err != nil {
		return nil, err
	}
	return &key, nil
}

// GetActiveByName returns sql.ErrNoRows for missing and inactive keys alike.
func (r *APIKeyRepository) GetActiveByName(ctx context.Context, name string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.GetContext(ctx, &key, r.db.Rebind(`SELECT `+apiKeyColumns+` FROM api_keys WHERE name = ? AND is_active = TRUE`), name)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO api_keys (name, service_name, description, encrypted_value, is_active, expires_at, created_at, updated_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		key.Name, key.ServiceName, key.Description, key.EncryptedValue, key.IsActive,
		utcPtr(key.ExpiresAt), now, now, key.CreatedBy,
	).Scan(&key.ID)
	if err != nil {
		return err
	}
	key.CreatedAt, key.UpdatedAt = now, now
	return nil
}

// Update writes every mutable column including encrypted_value.
func (r *APIKeyRepository) Update(ctx context.Context, key *models.APIKey) error {
	key.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE api_keys SET
			name = ?, service_name = ?, description = ?, encrypted_value = ?,
			is_active = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`), key.Name, key.ServiceName, key.Description, key.EncryptedValue,
		key.IsActive, utcPtr(key.ExpiresAt), key.UpdatedAt, key.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *APIKeyRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM api_keys WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// TouchLastAccessed records a read. Concurrent readers overwrite each other.
func (r *APIKeyRepository) TouchLastAccessed(ctx context.Context, id int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE api_keys SET last_accessed_at = ? WHERE id = ?`), at.UTC(), id)
	return err
}
