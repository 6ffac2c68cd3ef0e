package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// MessageHandler serves the token-gated message endpoints used by client apps.
type MessageHandler struct {
	eligibility *service.EligibilityService
	analytics   *service.AnalyticsService
	now         func() time.Time
}

func NewMessageHandler(eligibility *service.EligibilityService, analytics *service.AnalyticsService) *MessageHandler {
	return &MessageHandler{eligibility: eligibility, analytics: analytics, now: time.Now}
}

type eventRequest struct {
	AppID      string `json:"app_id"`
	CamelAppID string `json:"appId"`
}

// appIDParam reads app_id, falling back to appId.
func appIDParam(c *gin.Context) string {
	if v := c.Query("app_id"); v != "" {
		return v
	}
	return c.Query("appId")
}

// ListActive handles GET /api/messages?app_id=
func (h *MessageHandler) ListActive(c *gin.Context) {
	appID := appIDParam(c)
	now := h.now()
	msgs, err := h.eligibility.ListActive(c.Request.Context(), appID, now)
	if err != nil {
		respondError(c, err, "list messages")
		return
	}

	views := make([]models.MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = models.NewMessageView(m, now)
	}
	utils.Success(c, http.StatusOK, "Messages retrieved", views)
}

// RecordImpression handles POST /api/messages/:id/impression
func (h *MessageHandler) RecordImpression(c *gin.Context) {
	h.record(c, h.analytics.RecordImpression, "record impression")
}

// RecordTap handles POST /api/messages/:id/tap
func (h *MessageHandler) RecordTap(c *gin.Context) {
	h.record(c, h.analytics.RecordTap, "record tap")
}

func (h *MessageHandler) record(c *gin.Context, fn func(context.Context, int, string, time.Time) error, action string) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	appID := appIDParam(c)
	if appID == "" && c.Request.ContentLength != 0 {
		var req eventRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			appID = req.AppID
			if appID == "" {
				appID = req.CamelAppID
			}
		}
	}

	if err := fn(c.Request.Context(), id, appID, h.now()); err != nil {
		respondError(c, err, action)
		return
	}
	utils.Created(c, "Event recorded", gin.H{"status": "recorded"})
}
