package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// AdminAppHandler manages target apps.
type AdminAppHandler struct {
	apps *service.TargetAppService
}

func NewAdminAppHandler(apps *service.TargetAppService) *AdminAppHandler {
	return &AdminAppHandler{apps: apps}
}

// List handles GET /v1/admin/apps?active=true
func (h *AdminAppHandler) List(c *gin.Context) {
	apps, err := h.apps.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err, "list apps")
		return
	}
	utils.Success(c, http.StatusOK, "Apps retrieved", gin.H{
		"apps":  apps,
		"total": len(apps),
	})
}

// Create handles POST /v1/admin/apps
func (h *AdminAppHandler) Create(c *gin.Context) {
	var req service.CreateTargetAppRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.apps.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create app")
		return
	}
	utils.Created(c, "App created successfully", app)
}

// Update handles PUT /v1/admin/apps/:id
func (h *AdminAppHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateTargetAppRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.apps.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "update app")
		return
	}
	utils.Success(c, http.StatusOK, "App updated successfully", app)
}
