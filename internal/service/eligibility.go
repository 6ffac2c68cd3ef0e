package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/cache"
	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/utils"
)

// CandidateSource supplies the enabled messages targeting an app. Candidates
// may include messages outside their schedule window.
type CandidateSource interface {
	ListCandidates(ctx context.Context, appID string) ([]models.Message, error)
}

// SelectActive keeps candidates that are live at now and target appID,
// removes duplicate ids, and orders by priority, newest start first, then id.
func SelectActive(candidates []models.Message, appID string, now time.Time) []models.Message {
	seen := make(map[int]struct{}, len(candidates))
	out := make([]models.Message, 0, len(candidates))
	for _, m := range candidates {
		if !m.IsCurrentlyActive(now) || !m.TargetsApp(appID) {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.ID < b.ID
	})
	return out
}

// EligibilityService answers which messages are live for an app.
type EligibilityService struct {
	source CandidateSource
}

func NewEligibilityService(source CandidateSource) *EligibilityService {
	return &EligibilityService{source: source}
}

// ListActive returns the ordered live messages for appID at now.
func (s *EligibilityService) ListActive(ctx context.Context, appID string, now time.Time) ([]models.Message, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, fmt.Errorf("app_id is required: %w", utils.ErrInvalidArgument)
	}
	candidates, err := s.source.ListCandidates(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("load candidates for %s: %w", appID, err)
	}
	active := SelectActive(candidates, appID, now)
	metrics.ActiveMessagesServed.WithLabelValues(appID).Observe(float64(len(active)))
	return active, nil
}

// CachedSource serves candidates from the catalog cache, falling back to the
// wrapped source. Cache failures degrade to the fallback and are logged.
type CachedSource struct {
	next  CandidateSource
	cache *cache.CatalogCache
}

func NewCachedSource(next CandidateSource, c *cache.CatalogCache) *CachedSource {
	return &CachedSource{next: next, cache: c}
}

func (s *CachedSource) ListCandidates(ctx context.Context, appID string) ([]models.Message, error) {
	msgs, version, ok, err := s.cache.Get(ctx, appID)
	switch {
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("app_id", appID).Msg("catalog cache read failed")
	case ok:
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return msgs, nil
	default:
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	msgs, err = s.next.ListCandidates(ctx, appID)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return msgs, nil
	}
	if err := s.cache.Put(ctx, version, appID, msgs); err != nil {
		log.Warn().Err(err).Str("app_id", appID).Msg("catalog cache write failed")
	}
	return msgs, nil
}

// Invalidator is notified after any write that changes messages or targets.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) error { return nil }
