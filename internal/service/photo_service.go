package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"github.com/plantcare/internal/db"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

// MaxPhotoBytes 限制单张照片大小
const MaxPhotoBytes = 10 << 20

var (
	ErrPhotoNotFound = errors.New("photo not found")
	ErrPhotoInvalid  = errors.New("photo is not a supported image")
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
)

// PhotoService 管理植物照片：元数据在数据库，二进制内容在 diskv
// 元数据写入与删除植物共用 CareEventStore 的写锁，已删除的植物不会再挂上照片
type PhotoService struct {
	db     *gorm.DB
	events *CareEventStore
	blobs  *diskv.Diskv
	now    func() time.Time
}

// NewPhotoService 构造 PhotoService，baseDir 为照片根目录
func NewPhotoService(gdb *gorm.DB, events *CareEventStore, baseDir string) *PhotoService {
	return &PhotoService{
		db:     gdb,
		events: events,
		blobs: diskv.New(diskv.Options{
			BasePath:     baseDir,
			Transform:    blobKeyTransform,
			CacheSizeMax: 4 << 20,
		}),
		now: time.Now,
	}
}

// 以 key 前两位分目录，避免单目录文件过多
func blobKeyTransform(key string) []string {
	if len(key) < 2 {
		return []string{}
	}
	return []string{key[:2]}
}

// Upload 校验图片并保存；植物尚无封面时把这张设为封面
func (s *PhotoService) Upload(ctx context.Context, plantID uint, r io.Reader) (*db.Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(data) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoInvalid, err)
	}

	if err := ensurePlantExists(s.db.WithContext(ctx), plantID); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	if err := s.blobs.Write(key, data); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo := db.Photo{
		PlantID:     plantID,
		BlobKey:     key,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		TakenAt:     s.now(),
	}

	err = s.events.Write(ctx, func(tx *gorm.DB) error {
		var plant db.Plant
		if err := tx.First(&plant, plantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlantNotFound
			}
			return fmt.Errorf("find plant: %w", err)
		}
		if err := tx.Create(&photo).Error; err != nil {
			return fmt.Errorf("create photo: %w", err)
		}
		if plant.PhotoRef == nil {
			if err := tx.Model(&db.Plant{}).Where("id = ?", plantID).Update("photo_ref", key).Error; err != nil {
				return fmt.Errorf("set plant cover: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		_ = s.blobs.Erase(key)
		return nil, err
	}

	return &photo, nil
}

// List 返回植物照片，按拍摄时间升序
func (s *PhotoService) List(ctx context.Context, plantID uint) ([]db.Photo, error) {
	var photos []db.Photo
	if err := s.db.WithContext(ctx).Where("plant_id = ?", plantID).
		Order("taken_at ASC").Order("id ASC").
		Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// Get 根据 ID 获取照片元数据
func (s *PhotoService) Get(ctx context.Context, id uint) (*db.Photo, error) {
	var photo db.Photo
	if err := s.db.WithContext(ctx).First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &photo, nil
}

// Read 返回照片二进制内容
func (s *PhotoService) Read(photo db.Photo) ([]byte, error) {
	data, err := s.blobs.Read(photo.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoNotFound, err)
	}
	return data, nil
}

// Delete 删除照片；若它是植物封面则清空封面
func (s *PhotoService) Delete(ctx context.Context, id uint) error {
	photo, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.events.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Delete(&db.Photo{}, photo.ID).Error; err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		if err := tx.Model(&db.Plant{}).
			Where("id = ? AND photo_ref = ?", photo.PlantID, photo.BlobKey).
			Update("photo_ref", nil).Error; err != nil {
			return fmt.Errorf("clear plant cover: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.EraseBlobs(photo.BlobKey)
	return nil
}

// EraseBlobs 删除二进制内容，已不存在的 key 直接忽略
func (s *PhotoService) EraseBlobs(keys ...string) {
	for _, key := range keys {
		if s.blobs.Has(key) {
			_ = s.blobs.Erase(key)
		}
	}
}
