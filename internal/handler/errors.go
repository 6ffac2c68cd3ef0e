package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/utils"
)

// respondError maps service errors onto the envelope. Client-facing messages
// are fixed per kind, except InvalidArgument and Conflict which carry the
// validation detail. Anything else is logged and reported as 500.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, utils.ErrInvalidArgument):
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, utils.ErrUnauthorized):
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, utils.ErrConflict):
		utils.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, utils.ErrGone):
		utils.Error(c, http.StatusGone, "GONE", "Resource has expired")
	default:
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(action + " failed")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action)
	}
}

// pathID parses the :id route parameter, writing a 400 on failure.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}
