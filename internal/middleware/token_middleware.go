package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// TokenMiddleware guards the read API with the shared API token.
type TokenMiddleware struct {
	validator   *service.TokenValidator
	rateLimiter *InvalidAuthRateLimiter
}

// NewTokenMiddleware constructs a TokenMiddleware. limiter may be shared with other middleware.
func NewTokenMiddleware(validator *service.TokenValidator, limiter *InvalidAuthRateLimiter) *TokenMiddleware {
	return &TokenMiddleware{validator: validator, rateLimiter: limiter}
}

// Handle returns a Gin middleware function that enforces the API token.
func (m *TokenMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			m.handleAuthError(c, "Missing API token")
			return
		}
		if err := m.validator.Validate(token); err != nil {
			m.handleAuthError(c, "Invalid API token")
			return
		}
		c.Next()
	}
}

// extractToken reads ?token=, then X-Api-Token, then a Bearer header.
func extractToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	if t := c.GetHeader("X-Api-Token"); t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (m *TokenMiddleware) handleAuthError(c *gin.Context, message string) {
	ip := c.ClientIP()
	if m.rateLimiter != nil && !m.rateLimiter.Allow(ip) {
		log.Warn().Str("ip", ip).Msg("invalid API token attempts throttled")
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}
