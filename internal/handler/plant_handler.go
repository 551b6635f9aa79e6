package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/locale"
	"github.com/plantcare/internal/service"
	"go.uber.org/zap"
)

type plantRequest struct {
	Name                    string  `json:"name" binding:"required"`
	Type                    string  `json:"type"`
	Room                    string  `json:"room"`
	PhotoRef                *string `json:"photoRef"`
	WateringIntervalDays    int     `json:"wateringIntervalDays" binding:"required"`
	FertilizingIntervalDays int     `json:"fertilizingIntervalDays" binding:"required"`
}

func (r plantRequest) toInput() service.PlantInput {
	return service.PlantInput{
		Name:                    r.Name,
		Type:                    r.Type,
		Room:                    r.Room,
		PhotoRef:                r.PhotoRef,
		WateringIntervalDays:    r.WateringIntervalDays,
		FertilizingIntervalDays: r.FertilizingIntervalDays,
	}
}

func plantPayload(p db.Plant) gin.H {
	return gin.H{
		"id":                      p.ID,
		"name":                    p.Name,
		"type":                    p.Type,
		"room":                    p.Room,
		"photoRef":                p.PhotoRef,
		"wateringIntervalDays":    p.WateringIntervalDays,
		"fertilizingIntervalDays": p.FertilizingIntervalDays,
		"createdAt":               p.CreatedAt,
	}
}

func statusPayload(status care.Status) gin.H {
	return gin.H{"label": status.String(), "glyph": status.Glyph()}
}

func (a *API) eventPayload(e db.CareEvent, language string, now time.Time) gin.H {
	payload := gin.H{
		"id":        e.ID,
		"kind":      e.Kind,
		"action":    locale.KindAction(language, e.Kind),
		"plannedAt": e.PlannedAt,
	}
	if e.CompletedAt != nil {
		payload["completedAt"] = *e.CompletedAt
		return payload
	}
	days := care.DaysUntil(e.PlannedDue(), now)
	payload["daysUntil"] = days
	payload["dueText"] = locale.DueIn(language, days)
	return payload
}

// ListPlants 返回当前用户的植物及其最近一次保存的状态
func (a *API) ListPlants(c *gin.Context) {
	ctx := c.Request.Context()
	plants, err := a.plants.List(ctx, currentSession(c).UserID)
	if err != nil {
		a.handleServiceError(c, err, "failed to list plants")
		return
	}

	ids := make([]uint, 0, len(plants))
	for _, p := range plants {
		ids = append(ids, p.ID)
	}
	snapshots, err := a.statuses.Snapshots(ctx, ids)
	if err != nil {
		a.handleServiceError(c, err, "failed to list plants")
		return
	}

	response := make([]gin.H, 0, len(plants))
	for _, p := range plants {
		item := plantPayload(p)
		if snap, ok := snapshots[p.ID]; ok {
			item["status"] = snap.Status
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, gin.H{"plants": response})
}

// GetPlant 返回植物详情：未完成事件、实时状态以及匹配的百科条目
func (a *API) GetPlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	ctx := c.Request.Context()
	plant, err := a.plants.GetOwned(ctx, id, currentSession(c).UserID)
	if err != nil {
		a.handleServiceError(c, err, "failed to load plant")
		return
	}

	view, err := a.statuses.Evaluate(ctx, plant.ID)
	if err != nil {
		a.handleServiceError(c, err, "failed to evaluate plant status")
		return
	}

	language := a.requestLanguage(c)
	events := make([]gin.H, 0, len(view.Outstanding))
	for _, e := range view.Outstanding {
		events = append(events, a.eventPayload(e, language, view.EvaluatedAt))
	}

	response := gin.H{
		"plant":  plantPayload(*plant),
		"status": statusPayload(view.Status),
		"events": events,
	}

	if strings.TrimSpace(plant.Type) != "" {
		entry, err := a.encyclopedia.GetByName(ctx, plant.Type)
		switch {
		case err == nil:
			response["encyclopedia"] = gin.H{"name": entry.Entry.Name, "description": entry.Entry.Description}
		case !errors.Is(err, service.ErrEncyclopediaNotFound):
			a.logger.Warn("lookup encyclopedia entry", zap.String("type", plant.Type), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, response)
}

// CreatePlant 创建植物，同时为每种护理生成首个事件
func (a *API) CreatePlant(c *gin.Context) {
	var req plantRequest
	if !bindJSON(c, &req, "name and care intervals are required") {
		return
	}

	ctx := c.Request.Context()
	plant, events, err := a.plants.Create(ctx, currentSession(c).UserID, req.toInput())
	if err != nil {
		a.handleServiceError(c, err, "failed to create plant")
		return
	}

	if err := a.statuses.Refresh(ctx, plant.ID); err != nil {
		a.logger.Warn("refresh plant status", zap.Uint("plant_id", plant.ID), zap.Error(err))
	}

	language := a.requestLanguage(c)
	now := a.now()
	payload := make([]gin.H, 0, len(events))
	for _, e := range events {
		payload = append(payload, a.eventPayload(e, language, now))
	}

	c.JSON(http.StatusCreated, gin.H{"plant": plantPayload(*plant), "events": payload})
}

// UpdatePlant 更新植物，间隔变化时重建护理计划
func (a *API) UpdatePlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	var req plantRequest
	if !bindJSON(c, &req, "name and care intervals are required") {
		return
	}

	ctx := c.Request.Context()
	plant, err := a.plants.Update(ctx, id, currentSession(c).UserID, req.toInput())
	if err != nil {
		a.handleServiceError(c, err, "failed to update plant")
		return
	}

	if err := a.statuses.Refresh(ctx, plant.ID); err != nil {
		a.logger.Warn("refresh plant status", zap.Uint("plant_id", plant.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"plant": plantPayload(*plant)})
}

// DeletePlant 删除植物及其护理事件与照片
func (a *API) DeletePlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	keys, err := a.plants.Delete(c.Request.Context(), id, currentSession(c).UserID)
	if err != nil {
		a.handleServiceError(c, err, "failed to delete plant")
		return
	}
	a.photos.EraseBlobs(keys...)

	c.JSON(http.StatusOK, gin.H{"message": "plant deleted"})
}
