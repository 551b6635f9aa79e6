package db

import "gorm.io/gorm"

// SystemSetting 存储应用级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyNotificationPermission 记录用户是否授予通知权限（granted/denied）。
	SettingKeyNotificationPermission = "notification_permission"
	// SettingKeyLanguage 表示通知与界面文案语言。
	SettingKeyLanguage = "language"
)
