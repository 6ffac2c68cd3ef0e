package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/models"
)

const catalogVersionKey = "catalog:version"

// CatalogCache stores each app's candidate messages (enabled and targeted,
// schedule not yet applied). Entries are keyed by a catalog version that every
// admin write bumps, so invalidation is a single INCR and stale entries age out
// through their TTL.
type CatalogCache struct {
	kv  KV
	ttl time.Duration
}

// NewCatalogCache creates a CatalogCache. A zero ttl defaults to 30 seconds.
func NewCatalogCache(kv KV, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CatalogCache{kv: kv, ttl: ttl}
}

func (c *CatalogCache) version(ctx context.Context) (string, error) {
	v, err := c.kv.Get(ctx, catalogVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		return "", fmt.Errorf("corrupt catalog version %q", v)
	}
	return v, nil
}

func catalogKey(version, appID string) string {
	return fmt.Sprintf("catalog:v%s:app:%s", version, appID)
}

// Get returns the cached candidates for appID together with the catalog
// version it looked under. ok is false on a miss. Callers that fill a miss
// pass that version back to Put.
func (c *CatalogCache) Get(ctx context.Context, appID string) (msgs []models.Message, version string, ok bool, err error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, "", false, err
	}
	raw, err := c.kv.Get(ctx, catalogKey(v, appID))
	if errors.Is(err, ErrMiss) {
		return nil, v, false, nil
	}
	if err != nil {
		return nil, v, false, err
	}
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("discarding undecodable catalog entry")
		return nil, v, false, nil
	}
	return msgs, v, true, nil
}

// Put stores candidates for appID under version, which must be the version
// observed before the candidates were loaded. Entries written under a version
// that has since been bumped are unreachable.
func (c *CatalogCache) Put(ctx context.Context, version, appID string, msgs []models.Message) error {
	if version == "" {
		return errors.New("catalog put without a version")
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, catalogKey(version, appID), string(raw), c.ttl)
}

// Invalidate bumps the catalog version so all cached entries become unreachable.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	_, err := c.kv.Incr(ctx, catalogVersionKey)
	return err
}
