package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListEncyclopedia 返回百科条目列表
func (a *API) ListEncyclopedia(c *gin.Context) {
	entries, err := a.encyclopedia.List(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "failed to list encyclopedia")
		return
	}

	response := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		response = append(response, gin.H{
			"name":        e.Name,
			"description": e.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": response})
}

// GetEncyclopediaEntry 按名称返回条目，护理说明渲染为 HTML
func (a *API) GetEncyclopediaEntry(c *gin.Context) {
	view, err := a.encyclopedia.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		a.handleServiceError(c, err, "failed to load encyclopedia entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": gin.H{
		"name":          view.Entry.Name,
		"description":   view.Entry.Description,
		"careRules":     view.Entry.CareRules,
		"careRulesHtml": string(view.CareRulesHTML),
		"climateTips":   view.Entry.ClimateTips,
	}})
}
