package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/reminder"
	"github.com/plantcare/internal/service"
)

// HealthCheck 提供监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type notificationPermissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

func settingsPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"notificationsGranted": settings.NotificationsGranted,
		"language":             settings.Language,
	}
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "failed to load settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settingsPayload(settings)})
}

// UpdateNotificationPermission 授予或撤销通知权限。
func (a *API) UpdateNotificationPermission(c *gin.Context) {
	var req notificationPermissionRequest
	if !bindJSON(c, &req, "granted is required") {
		return
	}

	ctx := c.Request.Context()
	if err := a.system.SetNotificationPermission(ctx, *req.Granted); err != nil {
		a.handleServiceError(c, err, "failed to save settings")
		return
	}

	settings, err := a.system.GetSettings(ctx)
	if err != nil {
		a.handleServiceError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settingsPayload(settings)})
}

// UpdateNotificationLanguage 修改提醒文案语言。
func (a *API) UpdateNotificationLanguage(c *gin.Context) {
	var req languageRequest
	if !bindJSON(c, &req, "language is required") {
		return
	}

	ctx := c.Request.Context()
	if err := a.system.SetLanguage(ctx, req.Language); err != nil {
		respondError(c, http.StatusBadRequest, "unsupported language")
		return
	}

	settings, err := a.system.GetSettings(ctx)
	if err != nil {
		a.handleServiceError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settingsPayload(settings)})
}

// ListNotifications 返回通知栏中的提醒，每个紧急程度最多一条。
func (a *API) ListNotifications(c *gin.Context) {
	items, err := a.notifications.List(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "failed to list notifications")
		return
	}

	response := make([]gin.H, 0, len(items))
	for _, n := range items {
		response = append(response, gin.H{
			"slot":         n.Slot,
			"tier":         n.Tier,
			"urgent":       service.Tier(n.Tier).Urgent(),
			"title":        n.Title,
			"body":         n.Body,
			"dispatchedAt": n.DispatchedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": response})
}

// DismissNotification 清除一个通知槽位。
func (a *API) DismissNotification(c *gin.Context) {
	tier, err := service.ParseTier(c.Param("tier"))
	if err != nil {
		a.handleServiceError(c, err, "failed to dismiss notification")
		return
	}

	if err := a.notifications.Dismiss(c.Request.Context(), tier); err != nil {
		a.handleServiceError(c, err, "failed to dismiss notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification dismissed"})
}

// RunReminders 立即执行一次提醒扫描。
func (a *API) RunReminders(c *gin.Context) {
	if a.reminder == nil {
		respondError(c, http.StatusServiceUnavailable, "reminder scheduler is not running")
		return
	}

	err := a.reminder(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "reminder scan finished"})
	case errors.Is(err, reminder.ErrJobRunning):
		respondError(c, http.StatusConflict, "reminder scan already running")
	case errors.Is(err, reminder.ErrScanFailed):
		a.handleServiceError(c, err, "reminder scan failed")
	default:
		a.handleServiceError(c, err, "failed to run reminders")
	}
}
