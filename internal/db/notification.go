package db

import "time"

// Notification 是通知栏中的一个固定槽位。
// 每个紧急程度只有一个槽位，新的提醒覆盖旧内容而不是堆叠。
type Notification struct {
	ID           uint   `gorm:"primaryKey"`
	Slot         int    `gorm:"uniqueIndex;not null"`
	Tier         string `gorm:"size:20;not null"`
	Title        string `gorm:"size:200"`
	Body         string `gorm:"type:text"`
	DispatchedAt time.Time
	UpdatedAt    time.Time
}
