package db

import "time"

// Plant 定义了植物模型
// OwnerID 为 GuestUserID 时表示访客创建的植物
// PhotoRef 指向照片存储中的 key，可为空
// 删除植物时由服务层在同一事务中级联删除护理事件、照片与状态快照
type Plant struct {
	ID                      uint    `gorm:"primaryKey"`
	OwnerID                 int64   `gorm:"index;not null"`
	Name                    string  `gorm:"size:200;not null"`
	Type                    string  `gorm:"size:200"`
	Room                    string  `gorm:"size:200"`
	PhotoRef                *string `gorm:"size:64"`
	WateringIntervalDays    int     `gorm:"not null"`
	FertilizingIntervalDays int     `gorm:"not null"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CareEvent 记录一次计划中的护理动作
// 时间以 Unix 毫秒存储，区间查询直接比较整数
// CompletedAt 为空表示尚未完成；(plant_id, kind) 上的部分唯一索引
// 保证每种护理同一时间只有一条未完成事件
type CareEvent struct {
	ID          uint   `gorm:"primaryKey"`
	PlantID     uint   `gorm:"not null;index;uniqueIndex:idx_care_events_outstanding,where:completed_at IS NULL"`
	Kind        string `gorm:"size:32;not null;uniqueIndex:idx_care_events_outstanding,where:completed_at IS NULL"`
	PlannedAt   int64  `gorm:"not null;index"`
	CompletedAt *int64 `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlannedDue 返回计划时间
func (e CareEvent) PlannedDue() time.Time {
	return time.UnixMilli(e.PlannedAt)
}

// CompletedTime 返回完成时间，未完成时为 nil
func (e CareEvent) CompletedTime() *time.Time {
	if e.CompletedAt == nil {
		return nil
	}
	t := time.UnixMilli(*e.CompletedAt)
	return &t
}

// Outstanding 表示事件是否仍待处理
func (e CareEvent) Outstanding() bool {
	return e.CompletedAt == nil
}

// PlantStatus 保存最近一次计算出的植物状态，便于列表页直接读取
type PlantStatus struct {
	ID        uint   `gorm:"primaryKey"`
	PlantID   uint   `gorm:"uniqueIndex;not null"`
	Status    string `gorm:"size:32;not null"`
	UpdatedAt time.Time
}

// TableName 自定义表名以保持命名一致。
func (PlantStatus) TableName() string {
	return "plant_statuses"
}
