package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	// 内嵌时区库，容器镜像里没有 zoneinfo 也能解析 TIMEZONE
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr           string
	Port                 string
	DatabasePath         string
	SessionSecret        string
	GinMode              string
	PhotoDir             string
	Timezone             string
	Location             *time.Location
	ReminderAt           string
	Language             string
	LogLevel             string
	AdminLogin           string
	AdminPassword        string
	NotificationsDefault bool
	DevTools             bool
}

// Load 先尝试读取 .env，再从环境变量读取应用配置，并为缺失项提供默认值。
// 时区名称无法解析时返回错误，其余字段总能得到可用的值。
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}

	port := env("PORT", "8080")
	listenAddr := env("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	timezone := env("TIMEZONE", "Europe/Moscow")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return AppConfig{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	ginMode := env("GIN_MODE", "release")

	return AppConfig{
		ListenAddr:           listenAddr,
		Port:                 port,
		DatabasePath:         env("DATABASE_PATH", "plantcare.db"),
		SessionSecret:        env("SESSION_SECRET", "plantcare-dev-secret"),
		GinMode:              ginMode,
		PhotoDir:             env("PHOTO_DIR", "data/photos"),
		Timezone:             timezone,
		Location:             location,
		ReminderAt:           env("REMINDER_AT", "00:00"),
		Language:             env("LANGUAGE", "ru"),
		LogLevel:             env("LOG_LEVEL", "info"),
		AdminLogin:           strings.TrimSpace(os.Getenv("ADMIN_LOGIN")),
		AdminPassword:        strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		NotificationsDefault: strings.EqualFold(env("NOTIFICATIONS_DEFAULT", "denied"), "granted"),
		DevTools:             ginMode == "debug" || strings.EqualFold(os.Getenv("DEV_TOOLS"), "true"),
	}, nil
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
