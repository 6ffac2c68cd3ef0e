package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/middleware"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// AdminMessageHandler exposes message management for the admin console.
type AdminMessageHandler struct {
	messages  *service.MessageService
	analytics *service.AnalyticsService
	media     *service.MediaService
	now       func() time.Time
}

// NewAdminMessageHandler constructs the handler. media may be nil when uploads are not configured.
func NewAdminMessageHandler(messages *service.MessageService, analytics *service.AnalyticsService, media *service.MediaService) *AdminMessageHandler {
	return &AdminMessageHandler{messages: messages, analytics: analytics, media: media, now: time.Now}
}

type bulkRequest struct {
	IDs []int `json:"ids" binding:"required"`
}

// List handles GET /v1/admin/messages
func (h *AdminMessageHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	priority, _ := strconv.Atoi(c.Query("priority"))

	filter := models.MessageFilter{
		MessageType: c.Query("type"),
		Priority:    priority,
		AppID:       appIDParam(c),
		Search:      c.Query("search"),
		Page:        page,
		Limit:       limit,
	}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "active must be true or false")
			return
		}
		filter.IsActive = &active
	}

	ctx := c.Request.Context()
	msgs, total, err := h.messages.List(ctx, filter)
	if err != nil {
		respondError(c, err, "list messages")
		return
	}
	views, err := h.messages.AdminView(ctx, msgs, h.now())
	if err != nil {
		respondError(c, err, "list messages")
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Messages retrieved", views, page, limit, total)
}

// Create handles POST /v1/admin/messages
func (h *AdminMessageHandler) Create(c *gin.Context) {
	var req service.MessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.messages.Create(c.Request.Context(), &req, middleware.AdminUserID(c), h.now())
	if err != nil {
		respondError(c, err, "create message")
		return
	}
	h.respondView(c, http.StatusCreated, "Message created successfully", msg)
}

// Get handles GET /v1/admin/messages/:id
func (h *AdminMessageHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get message")
		return
	}
	h.respondView(c, http.StatusOK, "Message retrieved", msg)
}

// Update handles PUT /v1/admin/messages/:id
func (h *AdminMessageHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.MessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.messages.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "update message")
		return
	}
	h.respondView(c, http.StatusOK, "Message updated successfully", msg)
}

// Delete handles DELETE /v1/admin/messages/:id
func (h *AdminMessageHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete message")
		return
	}
	utils.Success(c, http.StatusOK, "Message deleted successfully", nil)
}

// Stats handles GET /v1/admin/messages/:id/stats
func (h *AdminMessageHandler) Stats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := h.analytics.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get message stats")
		return
	}
	utils.Success(c, http.StatusOK, "Message stats retrieved", stats)
}

// UploadImage handles POST /v1/admin/messages/:id/image (multipart field "image").
func (h *AdminMessageHandler) UploadImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !h.media.Enabled() {
		utils.Error(c, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Image uploads are not configured")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "image file is required")
		return
	}
	if file.Size > service.MaxImageBytes {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "image is too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err, "read image")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		respondError(c, err, "read image")
		return
	}

	msg, err := h.media.UploadMessageImage(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, err, "upload image")
		return
	}
	h.respondView(c, http.StatusOK, "Image uploaded successfully", msg)
}

// Bulk handles POST /v1/admin/messages/bulk/:action
func (h *AdminMessageHandler) Bulk(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := service.ValidateBulkIDs(req.IDs); err != nil {
		respondError(c, err, "bulk action")
		return
	}

	ctx := c.Request.Context()
	var res *service.BulkResult
	switch c.Param("action") {
	case "duplicate":
		res = h.messages.BulkDuplicate(ctx, req.IDs)
	case "activate":
		res = h.messages.BulkSetActive(ctx, req.IDs, true)
	case "deactivate":
		res = h.messages.BulkSetActive(ctx, req.IDs, false)
	case "target-all":
		res = h.messages.BulkTargetAll(ctx, req.IDs)
	default:
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Unknown bulk action")
		return
	}
	utils.Success(c, http.StatusOK, "Bulk action completed", res)
}

func (h *AdminMessageHandler) respondView(c *gin.Context, code int, message string, msg *models.Message) {
	views, err := h.messages.AdminView(c.Request.Context(), []models.Message{*msg}, h.now())
	if err != nil {
		respondError(c, err, "load message")
		return
	}
	utils.Success(c, code, message, views[0])
}
