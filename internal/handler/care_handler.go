package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarkCareDone 把某种护理标记为刚刚完成，并返回新的计划事件与状态
func (a *API) MarkCareDone(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	next, err := a.plants.MarkDone(ctx, id, currentSession(c).UserID, kind)
	if err != nil {
		a.handleServiceError(c, err, "failed to mark care done")
		return
	}

	view, err := a.statuses.Evaluate(ctx, id)
	if err != nil {
		a.logger.Warn("evaluate plant status", zap.Uint("plant_id", id), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"next": a.eventPayload(*next, a.requestLanguage(c), a.now())})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"next":   a.eventPayload(*next, a.requestLanguage(c), view.EvaluatedAt),
		"status": statusPayload(view.Status),
	})
}

// GetCareHistory 返回已完成的护理记录，最新的在前
func (a *API) GetCareHistory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	ctx := c.Request.Context()
	if _, err := a.plants.GetOwned(ctx, id, currentSession(c).UserID); err != nil {
		a.handleServiceError(c, err, "failed to load care history")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := a.events.History(ctx, id, limit)
	if err != nil {
		a.handleServiceError(c, err, "failed to load care history")
		return
	}

	language := a.requestLanguage(c)
	now := a.now()
	response := make([]gin.H, 0, len(history))
	for _, e := range history {
		response = append(response, a.eventPayload(e, language, now))
	}

	c.JSON(http.StatusOK, gin.H{"history": response})
}
