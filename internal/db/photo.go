package db

import "time"

// Photo 记录植物照片的元数据，二进制内容保存在磁盘存储中，通过 BlobKey 关联
type Photo struct {
	ID          uint   `gorm:"primaryKey"`
	PlantID     uint   `gorm:"index;not null"`
	BlobKey     string `gorm:"size:64;uniqueIndex;not null"`
	ContentType string `gorm:"size:50"`
	Width       int
	Height      int
	TakenAt     time.Time `gorm:"index"`
	CreatedAt   time.Time
}
