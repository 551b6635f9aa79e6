package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlantStatusView 汇总植物详情页需要的状态信息
type PlantStatusView struct {
	Status      care.Status
	Outstanding []db.CareEvent
	EvaluatedAt time.Time
}

// StatusService 根据护理事件计算植物状态，并保存最近一次结果
type StatusService struct {
	db     *gorm.DB
	events *CareEventStore
	now    func() time.Time
}

// NewStatusService 构造 StatusService
func NewStatusService(gdb *gorm.DB, events *CareEventStore) *StatusService {
	return &StatusService{db: gdb, events: events, now: time.Now}
}

// WithClock 允许在测试中固定当前时间
func (s *StatusService) WithClock(now func() time.Time) *StatusService {
	if now != nil {
		s.now = now
	}
	return s
}

// Evaluate 读取未完成事件与 24 小时内完成的事件，计算状态并写入快照
// 读取与写入在同一把写锁和事务内完成；植物已被删除时返回 ErrPlantNotFound，不留下快照
func (s *StatusService) Evaluate(ctx context.Context, plantID uint) (*PlantStatusView, error) {
	now := s.now()

	var events []db.CareEvent
	var status care.Status
	err := s.events.Write(ctx, func(tx *gorm.DB) error {
		if err := ensurePlantExists(tx, plantID); err != nil {
			return err
		}

		var err error
		events, err = recentForPlantTx(tx, plantID, now.Add(-care.Day))
		if err != nil {
			return err
		}

		status = care.Evaluate(toCareEvents(events), now)
		return saveSnapshotTx(tx, plantID, status, now)
	})
	if err != nil {
		return nil, err
	}

	outstanding := make([]db.CareEvent, 0, len(events))
	for _, e := range events {
		if e.Outstanding() {
			outstanding = append(outstanding, e)
		}
	}

	return &PlantStatusView{Status: status, Outstanding: outstanding, EvaluatedAt: now}, nil
}

// Refresh 只更新快照，供后台扫描使用；植物已被删除时直接跳过
func (s *StatusService) Refresh(ctx context.Context, plantID uint) error {
	_, err := s.Evaluate(ctx, plantID)
	if errors.Is(err, ErrPlantNotFound) {
		return nil
	}
	return err
}

// Snapshots 返回指定植物最近一次保存的状态
func (s *StatusService) Snapshots(ctx context.Context, plantIDs []uint) (map[uint]db.PlantStatus, error) {
	result := make(map[uint]db.PlantStatus, len(plantIDs))
	if len(plantIDs) == 0 {
		return result, nil
	}

	var rows []db.PlantStatus
	if err := s.db.WithContext(ctx).Where("plant_id IN ?", plantIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list plant statuses: %w", err)
	}
	for _, row := range rows {
		result[row.PlantID] = row
	}
	return result, nil
}

func saveSnapshotTx(tx *gorm.DB, plantID uint, status care.Status, now time.Time) error {
	record := db.PlantStatus{PlantID: plantID, Status: status.String(), UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save plant status: %w", err)
	}
	return nil
}
