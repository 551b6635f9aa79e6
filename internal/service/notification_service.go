package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPermissionDenied 表示用户尚未授予通知权限
var ErrPermissionDenied = errors.New("notification permission not granted")

// ErrUnknownTier 表示通知紧急程度不合法
var ErrUnknownTier = errors.New("unknown notification tier")

// Tier 是提醒的紧急程度
type Tier string

const (
	TierToday       Tier = "today"
	TierTomorrow    Tier = "tomorrow"
	TierInThreeDays Tier = "in_3_days"
)

// Tiers 按紧急程度从高到低返回全部 Tier
func Tiers() []Tier {
	return []Tier{TierToday, TierTomorrow, TierInThreeDays}
}

// Slot 返回 Tier 对应的固定通知槽位
func (t Tier) Slot() int {
	switch t {
	case TierToday:
		return 1001
	case TierTomorrow:
		return 1002
	case TierInThreeDays:
		return 1003
	default:
		return 0
	}
}

// Urgent 表示是否为当天提醒
func (t Tier) Urgent() bool {
	return t == TierToday
}

// ParseTier 解析外部输入的 Tier
func ParseTier(raw string) (Tier, error) {
	for _, t := range Tiers() {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, raw)
}

// Dispatcher 展示一条提醒
type Dispatcher interface {
	Notify(ctx context.Context, tier Tier, title, body string) error
}

// NotificationService 把提醒写入固定槽位，充当本地通知栏
// 未获授权时静默跳过，只记录日志
type NotificationService struct {
	db       *gorm.DB
	settings *SystemSettingService
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(gdb *gorm.DB, settings *SystemSettingService, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		db:       gdb,
		settings: settings,
		logger:   logging.OrNop(logger).Named("notifications"),
		now:      time.Now,
	}
}

// Notify 实现 Dispatcher
func (s *NotificationService) Notify(ctx context.Context, tier Tier, title, body string) error {
	slot := tier.Slot()
	if slot == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.NotificationsGranted {
		s.logger.Debug("notification skipped", zap.String("tier", string(tier)), zap.Error(ErrPermissionDenied))
		return nil
	}

	now := s.now()
	record := db.Notification{
		Slot:         slot,
		Tier:         string(tier),
		Title:        title,
		Body:         body,
		DispatchedAt: now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "title", "body", "dispatched_at", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	s.logger.Info("notification dispatched",
		zap.String("tier", string(tier)),
		zap.Int("slot", slot),
		zap.String("title", title))
	return nil
}

// List 返回当前通知栏内容，按槽位排序
func (s *NotificationService) List(ctx context.Context) ([]db.Notification, error) {
	var items []db.Notification
	if err := s.db.WithContext(ctx).Order("slot ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// Dismiss 清除某个槽位
func (s *NotificationService) Dismiss(ctx context.Context, tier Tier) error {
	if tier.Slot() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if err := s.db.WithContext(ctx).Where("slot = ?", tier.Slot()).Delete(&db.Notification{}).Error; err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}
