package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/service"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseKindParam(c *gin.Context) (care.Kind, bool) {
	kind, err := care.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unknown care kind")
		return "", false
	}
	return kind, true
}

// handleServiceError 把服务层的哨兵错误映射为 HTTP 状态码，fallback 用于未知错误
func (a *API) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlantNotFound):
		respondError(c, http.StatusNotFound, "plant not found")
	case errors.Is(err, service.ErrCareEventNotFound):
		respondError(c, http.StatusNotFound, "care event not found")
	case errors.Is(err, service.ErrPhotoNotFound):
		respondError(c, http.StatusNotFound, "photo not found")
	case errors.Is(err, service.ErrEncyclopediaNotFound):
		respondError(c, http.StatusNotFound, "encyclopedia entry not found")
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, "care event already scheduled")
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "login already taken")
	case errors.Is(err, care.ErrInvalidInterval):
		respondError(c, http.StatusBadRequest, "care interval must be at least one day")
	case errors.Is(err, care.ErrUnknownKind):
		respondError(c, http.StatusBadRequest, "unknown care kind")
	case errors.Is(err, service.ErrPlantInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPhotoInvalid):
		respondError(c, http.StatusBadRequest, "file is not a supported image")
	case errors.Is(err, service.ErrPhotoTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "photo is too large")
	case errors.Is(err, service.ErrUnknownTier):
		respondError(c, http.StatusBadRequest, "unknown reminder tier")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid login or password")
	default:
		a.logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
