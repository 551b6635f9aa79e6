package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
)

type forceDueRequest struct {
	Kind string `json:"kind" binding:"required"`
	When string `json:"when" binding:"required,oneof=today tomorrow in_3_days"`
}

// DevToolsRequired 仅在调试模式下开放开发者接口
func (a *API) DevToolsRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.devTools {
			respondError(c, http.StatusNotFound, "not found")
			c.Abort()
			return
		}
		c.Next()
	}
}

// forcedDue 返回目标日期当天中午，确保落在对应提醒窗口内
func (a *API) forcedDue(tier service.Tier) time.Time {
	y, m, d := a.now().In(a.location).Date()
	offset := 0
	switch tier {
	case service.TierTomorrow:
		offset = 1
	case service.TierInThreeDays:
		offset = 3
	}
	return time.Date(y, m, d+offset, 12, 0, 0, 0, a.location)
}

// ForceEventDue 把植物某种护理的未完成事件改到今天、明天或三天后，便于验证提醒
func (a *API) ForceEventDue(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	var req forceDueRequest
	if !bindJSON(c, &req, "kind and when (today, tomorrow, in_3_days) are required") {
		return
	}

	kind, err := care.ParseKind(req.Kind)
	if err != nil {
		a.handleServiceError(c, err, "failed to force event")
		return
	}
	tier, err := service.ParseTier(req.When)
	if err != nil {
		a.handleServiceError(c, err, "failed to force event")
		return
	}

	ctx := c.Request.Context()
	if _, err := a.plants.GetOwned(ctx, id, currentSession(c).UserID); err != nil {
		a.handleServiceError(c, err, "failed to force event")
		return
	}

	outstanding, err := a.events.OutstandingForPlant(ctx, id)
	if err != nil {
		a.handleServiceError(c, err, "failed to force event")
		return
	}

	event := db.CareEvent{PlantID: id, Kind: string(kind)}
	for _, e := range outstanding {
		if e.Kind == string(kind) {
			event = e
			break
		}
	}
	event.PlannedAt = a.forcedDue(tier).UnixMilli()

	if err := a.events.InsertEvent(ctx, &event); err != nil {
		a.handleServiceError(c, err, "failed to force event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": a.eventPayload(event, a.requestLanguage(c), a.now())})
}
