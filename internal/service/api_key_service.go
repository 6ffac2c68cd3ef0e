package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/secret"
	"github.com/eventstream/pulse/internal/utils"
)

var keyNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const (
	maxKeyNameLen     = 100
	maxServiceNameLen = 100
	unreadableMask    = "(unreadable)"
)

// APIKeyService is the read and admin surface of the secret store.
type APIKeyService struct {
	repo   *repository.APIKeyRepository
	cipher *secret.Cipher
}

func NewAPIKeyService(repo *repository.APIKeyRepository, cipher *secret.Cipher) *APIKeyService {
	return &APIKeyService{repo: repo, cipher: cipher}
}

// CreateAPIKeyRequest represents the request to store a new key.
type CreateAPIKeyRequest struct {
	Name        string     `json:"name" binding:"required"`
	Value       string     `json:"value" binding:"required"`
	ServiceName string     `json:"serviceName"`
	Description string     `json:"description"`
	IsActive    *bool      `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// UpdateAPIKeyRequest represents a partial update. A blank Value keeps the
// stored ciphertext.
type UpdateAPIKeyRequest struct {
	Name           *string    `json:"name"`
	Value          string     `json:"value"`
	ServiceName    *string    `json:"serviceName"`
	Description    *string    `json:"description"`
	IsActive       *bool      `json:"isActive"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	ClearExpiresAt bool       `json:"clearExpiresAt"`
}

// GetValue decrypts the named key for a client. Missing and inactive keys are
// NotFound, expired keys are Gone.
func (s *APIKeyService) GetValue(ctx context.Context, name string, now time.Time) (*models.APIKeyValue, error) {
	key, err := s.repo.GetActiveByName(ctx, name)
	if err != nil {
		metrics.APIKeyReadsTotal.WithLabelValues("not_found").Inc()
		return nil, mapNotFound(err, "API key '%s' not found or inactive", name)
	}
	if key.IsExpired(now) {
		metrics.APIKeyReadsTotal.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("API key '%s' has expired: %w", name, utils.ErrGone)
	}

	if err := s.repo.TouchLastAccessed(ctx, key.ID, now); err != nil {
		log.Warn().Err(err).Str("key_name", key.Name).Msg("failed to record API key access")
	}

	value, err := s.cipher.Decrypt(key.EncryptedValue)
	if err != nil {
		metrics.APIKeyReadsTotal.WithLabelValues("decrypt_error").Inc()
		log.Error().Err(err).Str("key_name", key.Name).Msg("stored API key could not be decrypted; SECRET_KEY may have changed")
		return nil, fmt.Errorf("decrypt API key: %w", utils.ErrInternal)
	}

	metrics.APIKeyReadsTotal.WithLabelValues("ok").Inc()
	return &models.APIKeyValue{
		Name:        key.Name,
		Value:       value,
		ServiceName: key.ServiceName,
		ExpiresAt:   key.ExpiresAt,
	}, nil
}

// ListAvailable returns active, unexpired keys without their values.
func (s *APIKeyService) ListAvailable(ctx context.Context, now time.Time) ([]models.APIKeySummary, error) {
	keys, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.APIKeySummary, 0, len(keys))
	for _, k := range keys {
		if k.IsExpired(now) {
			continue
		}
		out = append(out, models.APIKeySummary{
			Name:        k.Name,
			ServiceName: k.ServiceName,
			Description: k.Description,
			ExpiresAt:   k.ExpiresAt,
		})
	}
	return out, nil
}

func (s *APIKeyService) view(k models.APIKey, now time.Time) models.AdminAPIKeyView {
	masked := unreadableMask
	if v, err := s.cipher.Decrypt(k.EncryptedValue); err == nil {
		masked = secret.Mask(v)
	} else {
		log.Warn().Str("key_name", k.Name).Msg("API key value is unreadable with the current SECRET_KEY")
	}
	return models.AdminAPIKeyView{
		APIKey:         k,
		MaskedValue:    masked,
		IsExpired:      k.IsExpired(now),
		IsExpiringSoon: k.IsExpiringSoon(now),
		IsValid:        k.IsValid(now),
	}
}

// List returns every key with a masked value and status flags.
func (s *APIKeyService) List(ctx context.Context, now time.Time) ([]models.AdminAPIKeyView, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AdminAPIKeyView, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.view(k, now))
	}
	return out, nil
}

func (s *APIKeyService) Get(ctx context.Context, id int, now time.Time) (*models.AdminAPIKeyView, error) {
	key, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "API key %d", id)
	}
	v := s.view(*key, now)
	return &v, nil
}

func validateKeyFields(name, serviceName string) error {
	if len(name) > maxKeyNameLen || !keyNamePattern.MatchString(name) {
		return invalid("name must start with a lowercase letter and contain only lowercase letters, digits and underscores (max %d)", maxKeyNameLen)
	}
	if len(serviceName) > maxServiceNameLen {
		return invalid("serviceName must be at most %d characters", maxServiceNameLen)
	}
	return nil
}

func (s *APIKeyService) ensureNameFree(ctx context.Context, name string, selfID int) error {
	existing, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return fmt.Errorf("API key '%s' already exists: %w", name, utils.ErrConflict)
	}
	return nil
}

// Create encrypts and stores a new key.
func (s *APIKeyService) Create(ctx context.Context, req *CreateAPIKeyRequest, createdBy *int, now time.Time) (*models.AdminAPIKeyView, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateKeyFields(req.Name, req.ServiceName); err != nil {
		return nil, err
	}
	if req.Value == "" {
		return nil, invalid("value is required")
	}
	if err := s.ensureNameFree(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(req.Value)
	if err != nil {
		return nil, fmt.Errorf("encrypt API key: %w", err)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	key := &models.APIKey{
		Name:           req.Name,
		ServiceName:    strings.TrimSpace(req.ServiceName),
		Description:    req.Description,
		EncryptedValue: encrypted,
		IsActive:       active,
		ExpiresAt:      req.ExpiresAt,
		CreatedBy:      createdBy,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, err
	}
	log.Info().Str("key_name", key.Name).Int("key_id", key.ID).Msg("API key created")
	v := s.view(*key, now)
	return &v, nil
}

// Update applies a partial change. The value is re-encrypted only when provided.
func (s *APIKeyService) Update(ctx context.Context, id int, req *UpdateAPIKeyRequest, now time.Time) (*models.AdminAPIKeyView, error) {
	key, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "API key %d", id)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != key.Name {
			if err := s.ensureNameFree(ctx, name, key.ID); err != nil {
				return nil, err
			}
		}
		key.Name = name
	}
	if req.ServiceName != nil {
		key.ServiceName = strings.TrimSpace(*req.ServiceName)
	}
	if err := validateKeyFields(key.Name, key.ServiceName); err != nil {
		return nil, err
	}
	if req.Description != nil {
		key.Description = *req.Description
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}
	switch {
	case req.ClearExpiresAt:
		key.ExpiresAt = nil
	case req.ExpiresAt != nil:
		key.ExpiresAt = req.ExpiresAt
	}
	if req.Value != "" {
		if key.EncryptedValue, err = s.cipher.Encrypt(req.Value); err != nil {
			return nil, fmt.Errorf("encrypt API key: %w", err)
		}
	}

	if err := s.repo.Update(ctx, key); err != nil {
		return nil, mapNotFound(err, "API key %d", id)
	}
	log.Info().Str("key_name", key.Name).Int("key_id", key.ID).Bool("value_changed", req.Value != "").Msg("API key updated")
	v := s.view(*key, now)
	return &v, nil
}

func (s *APIKeyService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "API key %d", id)
	}
	log.Info().Int("key_id", id).Msg("API key deleted")
	return nil
}

// VerifyAll returns the names of stored keys that fail to decrypt.
func (s *APIKeyService) VerifyAll(ctx context.Context) ([]string, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	bad := []string{}
	for _, k := range keys {
		if _, err := s.cipher.Decrypt(k.EncryptedValue); err != nil {
			bad = append(bad, k.Name)
		}
	}
	return bad, nil
}

// ExpiryReport splits active keys into expired and expiring soon.
func (s *APIKeyService) ExpiryReport(ctx context.Context, now time.Time) (expired, expiring []models.APIKey, err error) {
	keys, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, k := range keys {
		switch {
		case k.IsExpired(now):
			expired = append(expired, k)
		case k.IsExpiringSoon(now):
			expiring = append(expiring, k)
		}
	}
	return expired, expiring, nil
}
