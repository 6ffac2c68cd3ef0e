package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/sse"
	"github.com/eventstream/pulse/internal/utils"
)

const (
	minTitleLen   = 3
	maxTitleLen   = 100
	maxBodyLen    = 1000
	maxCTATextLen = 50
	maxURLLen     = 500
	copyPrefix    = "Copy of "
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// MessageService handles admin message CRUD and bulk actions.
type MessageService struct {
	messageRepo *repository.MessageRepository
	appRepo     *repository.TargetAppRepository
	analytics   *AnalyticsService
	invalidator Invalidator
	notifier    sse.Notifier
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	appRepo *repository.TargetAppRepository,
	analytics *AnalyticsService,
	invalidator Invalidator,
	notifier sse.Notifier,
) *MessageService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	return &MessageService{
		messageRepo: messageRepo,
		appRepo:     appRepo,
		analytics:   analytics,
		invalidator: invalidator,
		notifier:    notifier,
	}
}

// MessageRequest carries all editable message fields. Create treats nil
// pointers as defaults; Update leaves the stored value unchanged.
type MessageRequest struct {
	Title           *string    `json:"title"`
	Body            *string    `json:"body"`
	ImageURL        *string    `json:"imageUrl"`
	CTAText         *string    `json:"ctaText"`
	CTAAction       *string    `json:"ctaAction"`
	MessageType     *string    `json:"messageType"`
	BannerPosition  *string    `json:"bannerPosition"`
	Priority        *int       `json:"priority"`
	IsDismissible   *bool      `json:"isDismissible"`
	BackgroundColor *string    `json:"backgroundColor"`
	TitleColor      *string    `json:"titleColor"`
	BodyColor       *string    `json:"bodyColor"`
	ButtonColor     *string    `json:"buttonColor"`
	ButtonTextColor *string    `json:"buttonTextColor"`
	TargetAppIDs    []string   `json:"targetAppIds"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	ClearEndDate    bool       `json:"clearEndDate"`
	IsActive        *bool      `json:"isActive"`
}

// BulkResult reports the outcome of a bulk action. The batch is not atomic.
type BulkResult struct {
	Succeeded []int          `json:"succeeded"`
	Failed    []int          `json:"failed"`
	Errors    map[int]string `json:"errors"`
	// Created maps source ids to new ids for duplicate.
	Created map[int]int `json:"created,omitempty"`
}

func newBulkResult() *BulkResult {
	return &BulkResult{Succeeded: []int{}, Failed: []int{}, Errors: map[int]string{}}
}

const bulkInternalError = "internal error"

// fail records a per-id failure. Only not-found and validation messages reach
// the client; anything else is logged and reported generically.
func (r *BulkResult) fail(id int, err error) {
	r.Failed = append(r.Failed, id)
	if errors.Is(err, utils.ErrNotFound) || errors.Is(err, utils.ErrInvalidArgument) {
		r.Errors[id] = err.Error()
		return
	}
	log.Error().Err(err).Int("message_id", id).Msg("bulk action failed")
	r.Errors[id] = bulkInternalError
}

func setStr(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (req *MessageRequest) apply(m *models.Message) {
	setStr(&m.Title, req.Title)
	if req.Body != nil {
		m.Body = *req.Body
	}
	setStr(&m.ImageURL, req.ImageURL)
	setStr(&m.CTAText, req.CTAText)
	setStr(&m.CTAAction, req.CTAAction)
	if req.MessageType != nil {
		m.MessageType = models.MessageType(*req.MessageType)
	}
	if req.BannerPosition != nil {
		m.BannerPosition = models.BannerPosition(*req.BannerPosition)
	}
	if req.Priority != nil {
		m.Priority = *req.Priority
	}
	if req.IsDismissible != nil {
		m.IsDismissible = *req.IsDismissible
	}
	setStr(&m.BackgroundColor, req.BackgroundColor)
	setStr(&m.TitleColor, req.TitleColor)
	setStr(&m.BodyColor, req.BodyColor)
	setStr(&m.ButtonColor, req.ButtonColor)
	setStr(&m.ButtonTextColor, req.ButtonTextColor)
	if req.StartDate != nil {
		m.StartDate = req.StartDate.UTC()
	}
	switch {
	case req.ClearEndDate:
		m.EndDate = nil
	case req.EndDate != nil:
		end := req.EndDate.UTC()
		m.EndDate = &end
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
}

func validateMessage(m *models.Message) error {
	if n := utf8.RuneCountInString(m.Title); n < minTitleLen || n > maxTitleLen {
		return invalid("title must be %d-%d characters", minTitleLen, maxTitleLen)
	}
	if utf8.RuneCountInString(m.Body) > maxBodyLen {
		return invalid("body must be at most %d characters", maxBodyLen)
	}
	if m.ImageURL != "" {
		if err := validateHTTPURL(m.ImageURL); err != nil {
			return invalid("imageUrl %v", err)
		}
	}
	if utf8.RuneCountInString(m.CTAText) > maxCTATextLen {
		return invalid("ctaText must be at most %d characters", maxCTATextLen)
	}
	if len(m.CTAAction) > maxURLLen {
		return invalid("ctaAction must be at most %d characters", maxURLLen)
	}
	if !m.MessageType.Valid() {
		return invalid("messageType %q is not one of modal, banner, bottom_sheet, full_screen", m.MessageType)
	}
	if !m.BannerPosition.Valid() {
		return invalid("bannerPosition %q is not one of top, bottom", m.BannerPosition)
	}
	if m.Priority < models.PriorityCritical || m.Priority > models.PriorityLow {
		return invalid("priority must be between %d and %d", models.PriorityCritical, models.PriorityLow)
	}
	colors := map[string]string{
		"backgroundColor": m.BackgroundColor,
		"titleColor":      m.TitleColor,
		"bodyColor":       m.BodyColor,
		"buttonColor":     m.ButtonColor,
		"buttonTextColor": m.ButtonTextColor,
	}
	for field, c := range colors {
		if c != "" && !colorPattern.MatchString(c) {
			return invalid("%s must be a #RRGGBB color", field)
		}
	}
	if m.EndDate != nil && !m.EndDate.After(m.StartDate) {
		return invalid("endDate must be after startDate")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if len(raw) > maxURLLen {
		return fmt.Errorf("must be at most %d characters", maxURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

// resolveTargets checks that every slug names a known app and returns them deduplicated.
func (s *MessageService) resolveTargets(ctx context.Context, appIDs []string) ([]string, error) {
	seen := map[string]struct{}{}
	clean := make([]string, 0, len(appIDs))
	for _, id := range appIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	apps, err := s.appRepo.FindByAppIDs(ctx, clean)
	if err != nil {
		return nil, err
	}
	if len(apps) != len(clean) {
		known := map[string]struct{}{}
		for _, a := range apps {
			known[a.AppID] = struct{}{}
		}
		for _, id := range clean {
			if _, ok := known[id]; !ok {
				return nil, invalid("unknown target app %q", id)
			}
		}
	}
	return clean, nil
}

func (s *MessageService) changed(ctx context.Context) {
	if err := s.invalidator.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

// Create validates and stores a new message. Messages start as drafts unless isActive is set.
func (s *MessageService) Create(ctx context.Context, req *MessageRequest, createdBy *int, now time.Time) (*models.Message, error) {
	msg := &models.Message{
		MessageType:    models.MessageTypeModal,
		BannerPosition: models.BannerPositionTop,
		Priority:       models.PriorityNormal,
		IsDismissible:  true,
		StartDate:      now.UTC(),
		CreatedBy:      createdBy,
	}
	req.apply(msg)
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	targets, err := s.resolveTargets(ctx, req.TargetAppIDs)
	if err != nil {
		return nil, err
	}
	msg.TargetAppIDs = targets

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.changed(ctx)
	s.notifier.NotifyMessageChanged(msg)
	log.Info().Int("message_id", msg.ID).Str("title", msg.Title).Strs("targets", targets).Msg("message created")
	return s.messageRepo.GetByID(ctx, msg.ID)
}

func (s *MessageService) Get(ctx context.Context, id int) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "message %d", id)
	}
	return msg, nil
}

// AdminView decorates messages with status and engagement totals.
func (s *MessageService) AdminView(ctx context.Context, msgs []models.Message, now time.Time) ([]models.AdminMessageView, error) {
	ids := make([]int, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
	}
	totals, err := s.analytics.Totals(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.AdminMessageView, len(msgs))
	for i, m := range msgs {
		t := totals[m.ID]
		out[i] = models.AdminMessageView{
			MessageView: models.NewMessageView(m, now),
			Status:      m.Status(now),
			Impressions: t.Impressions,
			Taps:        t.Taps,
		}
	}
	return out, nil
}

func (s *MessageService) List(ctx context.Context, f models.MessageFilter) ([]models.Message, int, error) {
	if f.MessageType != "" && !models.MessageType(f.MessageType).Valid() {
		return nil, 0, invalid("unknown message type %q", f.MessageType)
	}
	return s.messageRepo.List(ctx, f)
}

// Update applies a partial change. Targets are replaced only when targetAppIds is present.
func (s *MessageService) Update(ctx context.Context, id int, req *MessageRequest) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "message %d", id)
	}
	req.apply(msg)
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	replace := req.TargetAppIDs != nil
	if replace {
		if msg.TargetAppIDs, err = s.resolveTargets(ctx, req.TargetAppIDs); err != nil {
			return nil, err
		}
	}
	if err := s.messageRepo.Update(ctx, msg, replace); err != nil {
		return nil, mapNotFound(err, "message %d", id)
	}
	s.changed(ctx)
	s.notifier.NotifyMessageChanged(msg)
	log.Info().Int("message_id", id).Msg("message updated")
	return s.messageRepo.GetByID(ctx, id)
}

func (s *MessageService) Delete(ctx context.Context, id int) error {
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "message %d", id)
	}
	s.changed(ctx)
	s.notifier.NotifyMessageDeleted(id)
	log.Info().Int("message_id", id).Msg("message deleted")
	return nil
}

// SetImageURL points the message at an uploaded image.
func (s *MessageService) SetImageURL(ctx context.Context, id int, imageURL string) (*models.Message, error) {
	if err := validateHTTPURL(imageURL); err != nil {
		return nil, invalid("imageUrl %v", err)
	}
	if err := s.messageRepo.UpdateImageURL(ctx, id, imageURL); err != nil {
		return nil, mapNotFound(err, "message %d", id)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// CopyTitle builds the duplicate's title, truncated to the title limit.
func CopyTitle(title string) string {
	t := []rune(copyPrefix + title)
	if len(t) > maxTitleLen {
		t = t[:maxTitleLen]
	}
	return string(t)
}

// BulkDuplicate copies each message as an inactive draft.
func (s *MessageService) BulkDuplicate(ctx context.Context, ids []int) *BulkResult {
	res := newBulkResult()
	res.Created = map[int]int{}
	for _, id := range ids {
		src, err := s.messageRepo.GetByID(ctx, id)
		if err != nil {
			res.fail(id, mapNotFound(err, "message %d", id))
			continue
		}
		newID, err := s.messageRepo.Duplicate(ctx, id, CopyTitle(src.Title))
		if err != nil {
			res.fail(id, mapNotFound(err, "message %d", id))
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		res.Created[id] = newID
	}
	s.finishBulk(ctx, "duplicate", res)
	return res
}

// BulkSetActive activates or deactivates each message.
func (s *MessageService) BulkSetActive(ctx context.Context, ids []int, active bool) *BulkResult {
	res := newBulkResult()
	for _, id := range ids {
		if err := s.messageRepo.SetActive(ctx, id, active); err != nil {
			res.fail(id, mapNotFound(err, "message %d", id))
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	s.finishBulk(ctx, action, res)
	return res
}

// BulkTargetAll adds every active app to each message.
func (s *MessageService) BulkTargetAll(ctx context.Context, ids []int) *BulkResult {
	res := newBulkResult()
	for _, id := range ids {
		if err := s.messageRepo.TargetAll(ctx, id); err != nil {
			res.fail(id, mapNotFound(err, "message %d", id))
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	s.finishBulk(ctx, "target_all", res)
	return res
}

func (s *MessageService) finishBulk(ctx context.Context, action string, res *BulkResult) {
	if len(res.Succeeded) > 0 {
		s.changed(ctx)
	}
	log.Info().
		Str("action", action).
		Int("succeeded", len(res.Succeeded)).
		Int("failed", len(res.Failed)).
		Msg("bulk message action")
}

// ValidateBulkIDs rejects empty id lists.
func ValidateBulkIDs(ids []int) error {
	if len(ids) == 0 {
		return fmt.Errorf("ids must not be empty: %w", utils.ErrInvalidArgument)
	}
	return nil
}
