package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrCareEventNotFound 在指定护理事件不存在时返回
	ErrCareEventNotFound = errors.New("care event not found")
	// ErrConflict 表示写入会违反“每种护理仅一条未完成事件”的约束
	ErrConflict = errors.New("outstanding care event already exists")
)

// CareEventStore 负责护理事件的持久化
// 所有写操作经由 Write 串行执行并包裹在事务中，读者不会看到中间状态
type CareEventStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewCareEventStore 构造 CareEventStore
func NewCareEventStore(gdb *gorm.DB) *CareEventStore {
	return &CareEventStore{db: gdb}
}

// Write 在写锁与事务内执行 fn，供需要把植物与事件一起落库的调用方使用
func (s *CareEventStore) Write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(fn)
}

// InsertEvent 按 ID 插入或更新事件
// 若事件未完成且同一植物同一护理已有其它未完成事件，返回 ErrConflict
func (s *CareEventStore) InsertEvent(ctx context.Context, event *db.CareEvent) error {
	if _, err := care.ParseKind(event.Kind); err != nil {
		return err
	}

	return s.Write(ctx, func(tx *gorm.DB) error {
		return insertEventTx(tx, event)
	})
}

func insertEventTx(tx *gorm.DB, event *db.CareEvent) error {
	if err := ensurePlantExists(tx, event.PlantID); err != nil {
		return err
	}

	if event.Outstanding() {
		var clash int64
		if err := tx.Model(&db.CareEvent{}).
			Where("plant_id = ? AND kind = ? AND completed_at IS NULL AND id <> ?", event.PlantID, event.Kind, event.ID).
			Count(&clash).Error; err != nil {
			return fmt.Errorf("check outstanding events: %w", err)
		}
		if clash > 0 {
			return fmt.Errorf("%w: plant %d %s", ErrConflict, event.PlantID, event.Kind)
		}
	}

	if err := tx.Save(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: plant %d %s", ErrConflict, event.PlantID, event.Kind)
		}
		return fmt.Errorf("save care event: %w", err)
	}
	return nil
}

// ReplaceOutstandingEvents 在同一事务中删除植物全部未完成事件并写入 events
func (s *CareEventStore) ReplaceOutstandingEvents(ctx context.Context, plantID uint, events []db.CareEvent) ([]db.CareEvent, error) {
	var out []db.CareEvent
	err := s.Write(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = replaceOutstandingTx(tx, plantID, events)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func replaceOutstandingTx(tx *gorm.DB, plantID uint, events []db.CareEvent) ([]db.CareEvent, error) {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, err := care.ParseKind(e.Kind); err != nil {
			return nil, err
		}
		if _, dup := seen[e.Kind]; dup {
			return nil, fmt.Errorf("%w: duplicate %s in replacement", ErrConflict, e.Kind)
		}
		seen[e.Kind] = struct{}{}
	}

	if err := ensurePlantExists(tx, plantID); err != nil {
		return nil, err
	}

	if err := tx.Where("plant_id = ? AND completed_at IS NULL", plantID).
		Delete(&db.CareEvent{}).Error; err != nil {
		return nil, fmt.Errorf("delete outstanding events: %w", err)
	}

	out := make([]db.CareEvent, 0, len(events))
	for _, e := range events {
		record := db.CareEvent{PlantID: plantID, Kind: e.Kind, PlannedAt: e.PlannedAt}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("%w: plant %d %s", ErrConflict, plantID, e.Kind)
			}
			return nil, fmt.Errorf("create care event: %w", err)
		}
		out = append(out, record)
	}
	return out, nil
}

// OutstandingForPlant 返回植物的未完成事件，按计划时间升序
func (s *CareEventStore) OutstandingForPlant(ctx context.Context, plantID uint) ([]db.CareEvent, error) {
	var events []db.CareEvent
	if err := s.db.WithContext(ctx).
		Where("plant_id = ? AND completed_at IS NULL", plantID).
		Order("planned_at ASC").Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list outstanding events: %w", err)
	}
	return events, nil
}

// OutstandingDueInWindow 返回所有植物在 [start, end) 区间内到期的未完成事件
func (s *CareEventStore) OutstandingDueInWindow(ctx context.Context, start, end time.Time) ([]db.CareEvent, error) {
	var events []db.CareEvent
	if err := s.db.WithContext(ctx).
		Where("completed_at IS NULL AND planned_at >= ? AND planned_at < ?", start.UnixMilli(), end.UnixMilli()).
		Order("planned_at ASC").Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events in window: %w", err)
	}
	return events, nil
}

// RecentForPlant 返回未完成事件以及 since 之后完成的事件，供状态计算使用
func (s *CareEventStore) RecentForPlant(ctx context.Context, plantID uint, since time.Time) ([]db.CareEvent, error) {
	return recentForPlantTx(s.db.WithContext(ctx), plantID, since)
}

func recentForPlantTx(tx *gorm.DB, plantID uint, since time.Time) ([]db.CareEvent, error) {
	var events []db.CareEvent
	if err := tx.
		Where("plant_id = ? AND (completed_at IS NULL OR completed_at >= ?)", plantID, since.UnixMilli()).
		Order("planned_at ASC").Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	return events, nil
}

// History 返回已完成的护理记录，最新的在前
func (s *CareEventStore) History(ctx context.Context, plantID uint, limit int) ([]db.CareEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []db.CareEvent
	if err := s.db.WithContext(ctx).
		Where("plant_id = ? AND completed_at IS NOT NULL", plantID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list care history: %w", err)
	}
	return events, nil
}

// MarkEventDone 完成当前事件并立即开启下一次：原记录写入完成时间，
// 同时新建计划时间为 nextDue 的未完成事件。返回新事件。
func (s *CareEventStore) MarkEventDone(ctx context.Context, eventID uint, completedAt, nextDue time.Time) (*db.CareEvent, error) {
	var next db.CareEvent
	err := s.Write(ctx, func(tx *gorm.DB) error {
		var err error
		next, err = markDoneTx(tx, eventID, completedAt, nextDue)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func markDoneTx(tx *gorm.DB, eventID uint, completedAt, nextDue time.Time) (db.CareEvent, error) {
	var current db.CareEvent
	if err := tx.First(&current, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.CareEvent{}, ErrCareEventNotFound
		}
		return db.CareEvent{}, fmt.Errorf("find care event: %w", err)
	}
	if !current.Outstanding() {
		return db.CareEvent{}, fmt.Errorf("%w: event %d already completed", ErrConflict, eventID)
	}

	done := completedAt.UnixMilli()
	if err := tx.Model(&current).Update("completed_at", done).Error; err != nil {
		return db.CareEvent{}, fmt.Errorf("complete care event: %w", err)
	}

	next := db.CareEvent{PlantID: current.PlantID, Kind: current.Kind, PlannedAt: nextDue.UnixMilli()}
	if err := tx.Create(&next).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return db.CareEvent{}, fmt.Errorf("%w: plant %d %s", ErrConflict, current.PlantID, current.Kind)
		}
		return db.CareEvent{}, fmt.Errorf("open next care event: %w", err)
	}
	return next, nil
}

func ensurePlantExists(tx *gorm.DB, plantID uint) error {
	var count int64
	if err := tx.Model(&db.Plant{}).Where("id = ?", plantID).Count(&count).Error; err != nil {
		return fmt.Errorf("find plant: %w", err)
	}
	if count == 0 {
		return ErrPlantNotFound
	}
	return nil
}

func toCareEvents(events []db.CareEvent) []care.Event {
	out := make([]care.Event, 0, len(events))
	for _, e := range events {
		out = append(out, care.Event{
			Kind:        care.Kind(e.Kind),
			PlannedDue:  e.PlannedDue(),
			CompletedAt: e.CompletedTime(),
		})
	}
	return out
}
