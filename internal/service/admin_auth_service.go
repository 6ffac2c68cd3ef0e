package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/utils"
)

const minAdminPasswordLen = 8

type AdminAuthService struct {
	adminRepo *repository.AdminUserRepository
	jwt       *utils.JWTManager
}

func NewAdminAuthService(adminRepo *repository.AdminUserRepository, jwt *utils.JWTManager) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo, jwt: jwt}
}

// LoginResult is returned on successful admin login.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *models.AdminUser `json:"user"`
}

func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.adminRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.AdminLoginsTotal.WithLabelValues("unknown_user").Inc()
		log.Warn().Err(err).Str("email", email).Msg("Failed to get user by email")
		return nil, fmt.Errorf("invalid credentials: %w", utils.ErrUnauthorized)
	}

	if !user.IsActive {
		metrics.AdminLoginsTotal.WithLabelValues("inactive").Inc()
		log.Warn().Str("email", email).Msg("Account is inactive")
		return nil, fmt.Errorf("account is inactive: %w", utils.ErrUnauthorized)
	}

	// Verify password using bcrypt
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AdminLoginsTotal.WithLabelValues("bad_password").Inc()
		log.Warn().Str("email", email).Msg("Password verification failed")
		return nil, fmt.Errorf("invalid credentials: %w", utils.ErrUnauthorized)
	}

	token, expiresAt, err := s.jwt.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("failed to record last login")
	}

	metrics.AdminLoginsTotal.WithLabelValues("ok").Inc()
	log.Info().Str("email", email).Msg("Login successful")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, name string) (*models.AdminUser, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, invalid("email %q is not valid", email)
	}
	if len(password) < minAdminPasswordLen {
		return nil, invalid("password must be at least %d characters", minAdminPasswordLen)
	}
	if _, err := s.adminRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("admin %s already exists: %w", email, utils.ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
