package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/middleware"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// AdminKeyHandler manages stored API keys. Values are only ever returned masked.
type AdminKeyHandler struct {
	keys *service.APIKeyService
	now  func() time.Time
}

func NewAdminKeyHandler(keys *service.APIKeyService) *AdminKeyHandler {
	return &AdminKeyHandler{keys: keys, now: time.Now}
}

// List handles GET /v1/admin/keys
func (h *AdminKeyHandler) List(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err, "list API keys")
		return
	}
	utils.Success(c, http.StatusOK, "API keys retrieved", gin.H{
		"keys":  keys,
		"total": len(keys),
	})
}

// Get handles GET /v1/admin/keys/:id
func (h *AdminKeyHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	key, err := h.keys.Get(c.Request.Context(), id, h.now())
	if err != nil {
		respondError(c, err, "get API key")
		return
	}
	utils.Success(c, http.StatusOK, "API key retrieved", key)
}

// Create handles POST /v1/admin/keys
func (h *AdminKeyHandler) Create(c *gin.Context) {
	var req service.CreateAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	key, err := h.keys.Create(c.Request.Context(), &req, middleware.AdminUserID(c), h.now())
	if err != nil {
		respondError(c, err, "create API key")
		return
	}
	utils.Created(c, "API key created successfully", key)
}

// Update handles PUT /v1/admin/keys/:id. A blank value keeps the stored secret.
func (h *AdminKeyHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	key, err := h.keys.Update(c.Request.Context(), id, &req, h.now())
	if err != nil {
		respondError(c, err, "update API key")
		return
	}
	utils.Success(c, http.StatusOK, "API key updated successfully", key)
}

// Delete handles DELETE /v1/admin/keys/:id
func (h *AdminKeyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.keys.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete API key")
		return
	}
	utils.Success(c, http.StatusOK, "API key deleted successfully", nil)
}
