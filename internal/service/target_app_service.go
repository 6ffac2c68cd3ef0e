package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/utils"
)

var appIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

const (
	maxAppIDLen   = 50
	maxAppNameLen = 100
)

// TargetAppService manages the apps messages can target.
type TargetAppService struct {
	repo        *repository.TargetAppRepository
	invalidator Invalidator
}

func NewTargetAppService(repo *repository.TargetAppRepository, invalidator Invalidator) *TargetAppService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &TargetAppService{repo: repo, invalidator: invalidator}
}

// CreateTargetAppRequest represents the request to register an app.
type CreateTargetAppRequest struct {
	AppID   string `json:"appId" binding:"required"`
	AppName string `json:"appName" binding:"required"`
}

// UpdateTargetAppRequest represents a partial update. The slug cannot change.
type UpdateTargetAppRequest struct {
	AppName  *string `json:"appName"`
	IsActive *bool   `json:"isActive"`
}

func (s *TargetAppService) List(ctx context.Context, activeOnly bool) ([]models.TargetApp, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *TargetAppService) Create(ctx context.Context, req *CreateTargetAppRequest) (*models.TargetApp, error) {
	appID := strings.ToLower(strings.TrimSpace(req.AppID))
	name := strings.TrimSpace(req.AppName)
	if len(appID) > maxAppIDLen || !appIDPattern.MatchString(appID) {
		return nil, invalid("appId must be a lowercase slug of at most %d characters", maxAppIDLen)
	}
	if name == "" || len(name) > maxAppNameLen {
		return nil, invalid("appName must be 1-%d characters", maxAppNameLen)
	}

	if _, err := s.repo.GetByAppID(ctx, appID); err == nil {
		return nil, fmt.Errorf("app '%s' already exists: %w", appID, utils.ErrConflict)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	app := &models.TargetApp{AppID: appID, AppName: name, IsActive: true}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}
	log.Info().Str("app_id", appID).Msg("target app created")
	return app, nil
}

func (s *TargetAppService) Update(ctx context.Context, id int, req *UpdateTargetAppRequest) (*models.TargetApp, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "target app %d", id)
	}
	if req.AppName != nil {
		name := strings.TrimSpace(*req.AppName)
		if name == "" || len(name) > maxAppNameLen {
			return nil, invalid("appName must be 1-%d characters", maxAppNameLen)
		}
		app.AppName = name
	}
	if req.IsActive != nil {
		app.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, mapNotFound(err, "target app %d", id)
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
	log.Info().Str("app_id", app.AppID).Bool("is_active", app.IsActive).Msg("target app updated")
	return app, nil
}

// SeedDefaults inserts the default city apps that are missing and returns how many were added.
func (s *TargetAppService) SeedDefaults(ctx context.Context) (int, error) {
	added := 0
	for _, app := range models.DefaultTargetApps {
		ok, err := s.repo.InsertIfMissing(ctx, app)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", app.AppID, err)
		}
		if ok {
			added++
			log.Info().Str("app_id", app.AppID).Msg("seeded target app")
		}
	}
	return added, nil
}
