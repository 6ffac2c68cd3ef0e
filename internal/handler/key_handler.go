package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// KeyHandler serves decrypted API keys to server-side consumers.
type KeyHandler struct {
	keys *service.APIKeyService
	now  func() time.Time
}

func NewKeyHandler(keys *service.APIKeyService) *KeyHandler {
	return &KeyHandler{keys: keys, now: time.Now}
}

// ListAvailable handles GET /api/keys
func (h *KeyHandler) ListAvailable(c *gin.Context) {
	keys, err := h.keys.ListAvailable(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err, "list API keys")
		return
	}
	utils.Success(c, http.StatusOK, "API keys retrieved", gin.H{"keys": keys})
}

// GetValue handles GET /api/keys/:name/value
func (h *KeyHandler) GetValue(c *gin.Context) {
	val, err := h.keys.GetValue(c.Request.Context(), c.Param("name"), h.now())
	if err != nil {
		respondError(c, err, "read API key")
		return
	}
	c.Header("Cache-Control", "no-store")
	utils.Success(c, http.StatusOK, "API key retrieved", val)
}
