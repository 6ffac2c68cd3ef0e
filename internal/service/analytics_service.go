package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/sse"
	"github.com/eventstream/pulse/internal/utils"
)

// AnalyticsService records impressions and taps and aggregates them.
type AnalyticsService struct {
	messageRepo   *repository.MessageRepository
	analyticsRepo *repository.AnalyticsRepository
	notifier      sse.Notifier
}

func NewAnalyticsService(messageRepo *repository.MessageRepository, analyticsRepo *repository.AnalyticsRepository, notifier sse.Notifier) *AnalyticsService {
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	return &AnalyticsService{messageRepo: messageRepo, analyticsRepo: analyticsRepo, notifier: notifier}
}

func (s *AnalyticsService) RecordImpression(ctx context.Context, messageID int, appID string, now time.Time) error {
	return s.record(ctx, models.EventImpression, messageID, appID, now)
}

func (s *AnalyticsService) RecordTap(ctx context.Context, messageID int, appID string, now time.Time) error {
	return s.record(ctx, models.EventTap, messageID, appID, now)
}

func (s *AnalyticsService) record(ctx context.Context, kind models.EventKind, messageID int, appID string, now time.Time) error {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return fmt.Errorf("app_id is required: %w", utils.ErrInvalidArgument)
	}
	ok, err := s.messageRepo.Exists(ctx, messageID)
	if err != nil {
		return fmt.Errorf("check message %d: %w", messageID, err)
	}
	if !ok {
		return fmt.Errorf("message %d: %w", messageID, utils.ErrNotFound)
	}
	if _, err := s.analyticsRepo.Record(ctx, kind, messageID, appID, now); err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}

	metrics.MessageEventsTotal.WithLabelValues(string(kind), appID).Inc()
	s.notifier.NotifyEvent(kind, messageID, appID)
	log.Debug().Str("kind", string(kind)).Int("message_id", messageID).Str("app_id", appID).Msg("message event recorded")
	return nil
}

// Stats returns engagement totals for an existing message.
func (s *AnalyticsService) Stats(ctx context.Context, messageID int) (*models.MessageStats, error) {
	ok, err := s.messageRepo.Exists(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("message %d: %w", messageID, utils.ErrNotFound)
	}
	return s.analyticsRepo.Stats(ctx, messageID)
}

// Totals returns impression and tap counts for a page of messages.
func (s *AnalyticsService) Totals(ctx context.Context, messageIDs []int) (map[int]models.AppEventCount, error) {
	return s.analyticsRepo.Totals(ctx, messageIDs)
}
