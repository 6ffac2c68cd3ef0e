package models

import "time"

// ExpiringSoonWindow is how far ahead a key counts as expiring soon.
const ExpiringSoonWindow = 7 * 24 * time.Hour

// APIKey is a third-party credential stored encrypted at rest.
// EncryptedValue never leaves the server.
type APIKey struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	ServiceName    string     `db:"service_name" json:"serviceName"`
	Description    string     `db:"description" json:"description"`
	EncryptedValue string     `db:"encrypted_value" json:"-"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	CreatedBy      *int       `db:"created_by" json:"createdBy,omitempty"`
	LastAccessedAt *time.Time `db:"last_accessed_at" json:"lastAccessedAt"`
}

// IsExpired reports whether now is strictly past ExpiresAt.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// IsExpiringSoon reports whether the key expires within ExpiringSoonWindow.
func (k *APIKey) IsExpiringSoon(now time.Time) bool {
	if k.ExpiresAt == nil || k.IsExpired(now) {
		return false
	}
	return k.ExpiresAt.Sub(now) < ExpiringSoonWindow
}

// IsValid reports whether the key can currently be served.
func (k *APIKey) IsValid(now time.Time) bool {
	return k.IsActive && !k.IsExpired(now)
}

// APIKeySummary is the read API listing entry. It never carries the value.
type APIKeySummary struct {
	Name        string     `json:"name"`
	ServiceName string     `json:"serviceName"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// APIKeyValue is the decrypted read API response.
type APIKeyValue struct {
	Name        string     `json:"name"`
	Value       string     `json:"value"`
	ServiceName string     `json:"serviceName"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// AdminAPIKeyView is the admin representation with a masked value.
type AdminAPIKeyView struct {
	APIKey
	MaskedValue    string `json:"maskedValue"`
	IsExpired      bool   `json:"isExpired"`
	IsExpiringSoon bool   `json:"isExpiringSoon"`
	IsValid        bool   `json:"isValid"`
}
