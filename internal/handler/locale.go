package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/locale"
)

const languageContextKey = "__request_language"

// LocaleMiddleware resolves request language and sets headers for downstream caching.
func (a *API) LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		language := a.requestLanguage(c)
		c.Header("Content-Language", language)
		c.Header("Vary", "Accept-Language, Cookie")
		c.Next()
	}
}

// requestLanguage 依次读取 ?lang=、会话、Accept-Language，最后回退到配置语言
func (a *API) requestLanguage(c *gin.Context) string {
	if cached, exists := c.Get(languageContextKey); exists {
		if language, ok := cached.(string); ok {
			return language
		}
	}

	language := locale.Resolve(
		c.Query("lang"),
		currentSession(c).Language,
		locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language")),
		a.language,
	)
	c.Set(languageContextKey, language)
	return language
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

// UpdateSessionLanguage 修改当前会话的界面语言
func (a *API) UpdateSessionLanguage(c *gin.Context) {
	var req languageRequest
	if !bindJSON(c, &req, "language is required") {
		return
	}

	language := locale.NormalizeLanguage(req.Language)
	if language == "" {
		respondError(c, http.StatusBadRequest, "unsupported language")
		return
	}

	store := sessions.Default(c)
	store.Set(sessionLanguageKey, language)
	if err := store.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}
	c.Set(languageContextKey, language)

	c.JSON(http.StatusOK, gin.H{"language": language})
}
