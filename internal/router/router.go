package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionName = "plantcare_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 登录与访客会话
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/guest", api.Guest)
		auth.POST("/logout", api.Logout)
	}

	// 百科不需要登录
	r.GET("/api/encyclopedia", api.ListEncyclopedia)
	r.GET("/api/encyclopedia/:name", api.GetEncyclopediaEntry)

	// 需要会话的接口
	apiGroup := r.Group("/api")
	apiGroup.Use(handler.AuthRequired())
	{
		apiGroup.GET("/me", api.Me)
		apiGroup.PUT("/me/language", api.UpdateSessionLanguage)

		apiGroup.GET("/plants", api.ListPlants)
		apiGroup.POST("/plants", api.CreatePlant)
		apiGroup.GET("/plants/:id", api.GetPlant)
		apiGroup.PUT("/plants/:id", api.UpdatePlant)
		apiGroup.DELETE("/plants/:id", api.DeletePlant)

		apiGroup.POST("/plants/:id/care/:kind/done", api.MarkCareDone)
		apiGroup.GET("/plants/:id/care/history", api.GetCareHistory)

		apiGroup.GET("/plants/:id/photos", api.ListPhotos)
		apiGroup.POST("/plants/:id/photos", api.UploadPhoto)
		apiGroup.GET("/photos/:photoId", api.GetPhotoContent)
		apiGroup.DELETE("/photos/:photoId", api.DeletePhoto)

		apiGroup.GET("/settings", api.GetSystemSettings)
		apiGroup.PUT("/settings/notifications", api.UpdateNotificationPermission)
		apiGroup.GET("/notifications", api.ListNotifications)
		apiGroup.DELETE("/notifications/:tier", api.DismissNotification)

		admin := apiGroup.Group("")
		admin.Use(handler.AdminRequired())
		{
			admin.PUT("/settings/language", api.UpdateNotificationLanguage)
			admin.POST("/reminders/run", api.RunReminders)
		}

		// 开发者接口只在调试模式下注册
		if api.DevToolsEnabled() {
			dev := apiGroup.Group("/dev")
			dev.Use(api.DevToolsRequired())
			{
				dev.POST("/plants/:id/events", api.ForceEventDue)
				dev.POST("/reminders/run", api.RunReminders)
			}
		}
	}

	return r
}
