package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/locale"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	permissionGranted = "granted"
	permissionDenied  = "denied"
)

// SystemSettings 描述可配置的应用设置。
type SystemSettings struct {
	NotificationsGranted bool
	Language             string
}

// SystemSettingService 提供应用设置的读取与更新能力。
type SystemSettingService struct {
	db       *gorm.DB
	defaults SystemSettings
}

// NewSystemSettingService 构造 SystemSettingService，defaults 用于数据库中尚无记录的键。
func NewSystemSettingService(gdb *gorm.DB, defaults SystemSettings) *SystemSettingService {
	defaults.Language = locale.Resolve(defaults.Language)
	return &SystemSettingService{db: gdb, defaults: defaults}
}

var settingKeys = []string{
	db.SettingKeyNotificationPermission,
	db.SettingKeyLanguage,
}

// GetSettings 读取应用设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings(ctx context.Context) (SystemSettings, error) {
	result := s.defaults

	var records []db.SystemSetting
	if err := s.db.WithContext(ctx).Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyNotificationPermission:
			result.NotificationsGranted = strings.TrimSpace(record.Value) == permissionGranted
		case db.SettingKeyLanguage:
			if lang := locale.NormalizeLanguage(record.Value); lang != "" {
				result.Language = lang
			}
		}
	}

	return result, nil
}

// SetNotificationPermission 记录通知权限的授予或撤销。
func (s *SystemSettingService) SetNotificationPermission(ctx context.Context, granted bool) error {
	value := permissionDenied
	if granted {
		value = permissionGranted
	}
	return s.upsert(ctx, db.SettingKeyNotificationPermission, value)
}

// SetLanguage 更新通知文案语言，不支持的语言返回错误。
func (s *SystemSettingService) SetLanguage(ctx context.Context, language string) error {
	lang := locale.NormalizeLanguage(language)
	if lang == "" {
		return fmt.Errorf("unsupported language %q", language)
	}
	return s.upsert(ctx, db.SettingKeyLanguage, lang)
}

func (s *SystemSettingService) upsert(ctx context.Context, key, value string) error {
	record := db.SystemSetting{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
