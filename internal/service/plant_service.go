package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPlantNotFound 在指定植物不存在或不属于当前用户时返回
	ErrPlantNotFound = errors.New("plant not found")
	// ErrPlantInvalid 当植物字段校验失败时返回
	ErrPlantInvalid = errors.New("invalid plant")
)

// plainText 去掉用户输入中的全部标记
var plainText = bluemonday.StrictPolicy()

func stripMarkup(raw string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(raw)))
}

// PlantService 负责植物的增删改查，并在同一事务中维护护理事件
// 新建植物时为每种护理生成一条事件；修改间隔时整体替换未完成事件
type PlantService struct {
	db       *gorm.DB
	events   *CareEventStore
	validate *validator.Validate
	now      func() time.Time
}

// PlantInput 定义创建/更新植物时可配置字段
type PlantInput struct {
	Name                    string  `validate:"required,max=200"`
	Type                    string  `validate:"max=200"`
	Room                    string  `validate:"max=200"`
	PhotoRef                *string `validate:"omitempty,max=64"`
	WateringIntervalDays    int     `validate:"min=1,max=36500"`
	FertilizingIntervalDays int     `validate:"min=1,max=36500"`
}

// Intervals 把输入转换为各护理类型的间隔
func (in PlantInput) Intervals() care.Intervals {
	return care.Intervals{
		care.Watering:    in.WateringIntervalDays,
		care.Fertilizing: in.FertilizingIntervalDays,
	}
}

// NewPlantService 构造 PlantService
func NewPlantService(gdb *gorm.DB, events *CareEventStore) *PlantService {
	return &PlantService{
		db:       gdb,
		events:   events,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithClock 允许在测试中固定当前时间
func (s *PlantService) WithClock(now func() time.Time) *PlantService {
	if now != nil {
		s.now = now
	}
	return s
}

// List 返回用户的植物，按创建时间倒序
func (s *PlantService) List(ctx context.Context, ownerID int64) ([]db.Plant, error) {
	var plants []db.Plant
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return plants, nil
}

// ListAll 返回全部植物，供后台任务与命令行使用
func (s *PlantService) ListAll(ctx context.Context) ([]db.Plant, error) {
	var plants []db.Plant
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return plants, nil
}

// Get 根据 ID 获取植物
func (s *PlantService) Get(ctx context.Context, id uint) (*db.Plant, error) {
	var plant db.Plant
	if err := s.db.WithContext(ctx).First(&plant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &plant, nil
}

// GetOwned 获取属于 ownerID 的植物，归属不符时同样返回 ErrPlantNotFound
func (s *PlantService) GetOwned(ctx context.Context, id uint, ownerID int64) (*db.Plant, error) {
	plant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plant.OwnerID != ownerID {
		return nil, ErrPlantNotFound
	}
	return plant, nil
}

// Create 新建植物并为每种护理生成首个事件，计划时间以创建时刻为基准
func (s *PlantService) Create(ctx context.Context, ownerID int64, input PlantInput) (*db.Plant, []db.CareEvent, error) {
	input = normalizePlantInput(input)
	if err := s.validateInput(input); err != nil {
		return nil, nil, err
	}

	now := s.now()
	planned, err := care.Plan(now, input.Intervals())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPlantInvalid, err)
	}

	plant := db.Plant{
		OwnerID:                 ownerID,
		Name:                    input.Name,
		Type:                    input.Type,
		Room:                    input.Room,
		PhotoRef:                input.PhotoRef,
		WateringIntervalDays:    input.WateringIntervalDays,
		FertilizingIntervalDays: input.FertilizingIntervalDays,
		CreatedAt:               now,
	}

	var events []db.CareEvent
	err = s.events.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&plant).Error; err != nil {
			return fmt.Errorf("create plant: %w", err)
		}
		var err error
		events, err = replaceOutstandingTx(tx, plant.ID, plannedToEvents(planned))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return &plant, events, nil
}

// Update 更新植物；间隔变化时以当前时刻为基准重建两种护理的未完成事件
func (s *PlantService) Update(ctx context.Context, id uint, ownerID int64, input PlantInput) (*db.Plant, error) {
	input = normalizePlantInput(input)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var existing db.Plant
	err := s.events.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlantNotFound
			}
			return fmt.Errorf("find plant: %w", err)
		}
		if existing.OwnerID != ownerID {
			return ErrPlantNotFound
		}

		intervalsChanged := existing.WateringIntervalDays != input.WateringIntervalDays ||
			existing.FertilizingIntervalDays != input.FertilizingIntervalDays

		existing.Name = input.Name
		existing.Type = input.Type
		existing.Room = input.Room
		existing.PhotoRef = input.PhotoRef
		existing.WateringIntervalDays = input.WateringIntervalDays
		existing.FertilizingIntervalDays = input.FertilizingIntervalDays

		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("update plant: %w", err)
		}

		if !intervalsChanged {
			return nil
		}

		planned, err := care.Plan(s.now(), input.Intervals())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPlantInvalid, err)
		}
		_, err = replaceOutstandingTx(tx, existing.ID, plannedToEvents(planned))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &existing, nil
}

// Delete 删除植物并级联删除护理事件、照片记录与状态快照
// 返回被删除照片的存储 key，由调用方清理二进制内容
func (s *PlantService) Delete(ctx context.Context, id uint, ownerID int64) ([]string, error) {
	var blobKeys []string
	err := s.events.Write(ctx, func(tx *gorm.DB) error {
		var plant db.Plant
		if err := tx.First(&plant, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlantNotFound
			}
			return fmt.Errorf("find plant: %w", err)
		}
		if plant.OwnerID != ownerID {
			return ErrPlantNotFound
		}

		if err := tx.Model(&db.Photo{}).Where("plant_id = ?", id).Pluck("blob_key", &blobKeys).Error; err != nil {
			return fmt.Errorf("list plant photos: %w", err)
		}

		for _, model := range []any{&db.CareEvent{}, &db.Photo{}, &db.PlantStatus{}} {
			if err := tx.Where("plant_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete plant data: %w", err)
			}
		}

		if err := tx.Delete(&db.Plant{}, id).Error; err != nil {
			return fmt.Errorf("delete plant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blobKeys, nil
}

// MarkDone 把某种护理标记为已完成，下一次计划时间总是从完成时刻开始计算
func (s *PlantService) MarkDone(ctx context.Context, plantID uint, ownerID int64, kind care.Kind) (*db.CareEvent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", care.ErrUnknownKind, kind)
	}

	plant, err := s.GetOwned(ctx, plantID, ownerID)
	if err != nil {
		return nil, err
	}

	interval := IntervalFor(*plant, kind)
	now := s.now()
	nextDue := care.NextDue(now, interval)

	var next db.CareEvent
	err = s.events.Write(ctx, func(tx *gorm.DB) error {
		var current db.CareEvent
		lookup := tx.Where("plant_id = ? AND kind = ? AND completed_at IS NULL", plant.ID, string(kind)).Limit(1).Find(&current)
		if lookup.Error != nil {
			return fmt.Errorf("find outstanding event: %w", lookup.Error)
		}

		if lookup.RowsAffected == 0 {
			next = db.CareEvent{PlantID: plant.ID, Kind: string(kind), PlannedAt: nextDue.UnixMilli()}
			return insertEventTx(tx, &next)
		}

		var err error
		next, err = markDoneTx(tx, current.ID, now, nextDue)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// IntervalFor 返回植物某种护理的间隔天数
func IntervalFor(plant db.Plant, kind care.Kind) int {
	switch kind {
	case care.Fertilizing:
		return plant.FertilizingIntervalDays
	default:
		return plant.WateringIntervalDays
	}
}

func (s *PlantService) validateInput(input PlantInput) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0]
			if strings.HasSuffix(field.Field(), "IntervalDays") {
				return fmt.Errorf("%w: %s", care.ErrInvalidInterval, field.Field())
			}
			return fmt.Errorf("%w: %s failed %s", ErrPlantInvalid, field.Field(), field.Tag())
		}
		return fmt.Errorf("%w: %v", ErrPlantInvalid, err)
	}
	return nil
}

func normalizePlantInput(input PlantInput) PlantInput {
	input.Name = stripMarkup(input.Name)
	input.Type = stripMarkup(input.Type)
	input.Room = stripMarkup(input.Room)
	if input.PhotoRef != nil {
		ref := strings.TrimSpace(*input.PhotoRef)
		if ref == "" {
			input.PhotoRef = nil
		} else {
			input.PhotoRef = &ref
		}
	}
	return input
}

func plannedToEvents(planned []care.Planned) []db.CareEvent {
	events := make([]db.CareEvent, 0, len(planned))
	for _, p := range planned {
		events = append(events, db.CareEvent{Kind: string(p.Kind), PlannedAt: p.Due.UnixMilli()})
	}
	return events
}
