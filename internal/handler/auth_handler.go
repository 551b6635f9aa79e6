package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/db"
	"go.uber.org/zap"
)

const (
	sessionUserIDKey   = "user_id"
	sessionLoginKey    = "login"
	sessionRoleKey     = "role"
	sessionGuestKey    = "guest"
	sessionLanguageKey = "language"
	sessionContextKey  = "__session"
)

// Session 是当前请求的登录状态
type Session struct {
	UserID   int64
	Login    string
	Role     string
	Guest    bool
	Language string
}

// Admin 表示当前用户是否为管理员
func (s Session) Admin() bool {
	return !s.Guest && s.Role == db.RoleAdmin
}

type credentialsRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func readSession(c *gin.Context) (Session, bool) {
	if cached, exists := c.Get(sessionContextKey); exists {
		if s, ok := cached.(Session); ok {
			return s, true
		}
	}

	store := sessions.Default(c)
	raw := store.Get(sessionUserIDKey)
	if raw == nil {
		return Session{}, false
	}
	userID, ok := raw.(int64)
	if !ok {
		return Session{}, false
	}

	s := Session{UserID: userID}
	s.Login, _ = store.Get(sessionLoginKey).(string)
	s.Role, _ = store.Get(sessionRoleKey).(string)
	s.Guest, _ = store.Get(sessionGuestKey).(bool)
	s.Language, _ = store.Get(sessionLanguageKey).(string)
	return s, true
}

func currentSession(c *gin.Context) Session {
	s, _ := readSession(c)
	return s
}

func writeSession(c *gin.Context, s Session) error {
	store := sessions.Default(c)
	store.Set(sessionUserIDKey, s.UserID)
	store.Set(sessionLoginKey, s.Login)
	store.Set(sessionRoleKey, s.Role)
	store.Set(sessionGuestKey, s.Guest)
	if s.Language != "" {
		store.Set(sessionLanguageKey, s.Language)
	}
	c.Set(sessionContextKey, s)
	return store.Save()
}

func sessionPayload(s Session) gin.H {
	return gin.H{
		"userId":   s.UserID,
		"login":    s.Login,
		"role":     s.Role,
		"guest":    s.Guest,
		"language": s.Language,
	}
}

// Register 注册新用户并直接登录
func (a *API) Register(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "login and password are required") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		a.handleServiceError(c, err, "failed to register")
		return
	}

	s := Session{UserID: int64(user.ID), Login: user.Login, Role: user.Role, Language: a.requestLanguage(c)}
	if err := writeSession(c, s); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": sessionPayload(s)})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, "login and password are required") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		a.handleServiceError(c, err, "failed to log in")
		return
	}

	s := Session{UserID: int64(user.ID), Login: user.Login, Role: user.Role, Language: a.requestLanguage(c)}
	if err := writeSession(c, s); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	a.logger.Info("user logged in", zap.String("login", user.Login))
	c.JSON(http.StatusOK, gin.H{"session": sessionPayload(s)})
}

// Guest 开启访客会话，访客植物归属于 GuestUserID
func (a *API) Guest(c *gin.Context) {
	s := Session{UserID: db.GuestUserID, Login: "guest", Role: db.RoleUser, Guest: true, Language: a.requestLanguage(c)}
	if err := writeSession(c, s); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sessionPayload(s)})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	store := sessions.Default(c)
	store.Clear()
	if err := store.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me 返回当前会话信息
func (a *API) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": sessionPayload(currentSession(c))})
}

// AuthRequired 要求请求带有登录或访客会话
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := readSession(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Set(sessionContextKey, s)
		c.Next()
	}
}

// AdminRequired 要求管理员会话，需挂在 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).Admin() {
			respondError(c, http.StatusForbidden, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}
