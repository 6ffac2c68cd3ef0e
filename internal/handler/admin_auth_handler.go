package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

type AdminAuthHandler struct {
	authService *service.AdminAuthService
}

func NewAdminAuthHandler(authService *service.AdminAuthService) *AdminAuthHandler {
	return &AdminAuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/auth/login
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login")
		return
	}
	utils.Success(c, http.StatusOK, "Login successful", res)
}
