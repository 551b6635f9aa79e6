package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EncyclopediaEntry 是植物百科条目，CareRules 使用 Markdown 编写
type EncyclopediaEntry struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:200;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CareRules   string `gorm:"type:text"`
	ClimateTips string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (EncyclopediaEntry) TableName() string {
	return "encyclopedia"
}

// DefaultEncyclopediaEntries 返回内置的百科数据
func DefaultEncyclopediaEntries() []EncyclopediaEntry {
	return []EncyclopediaEntry{
		{
			Name:        "Monstera",
			Description: "Large tropical climber with split leaves.",
			CareRules:   "**Watering:** every 7 days, let the top soil dry.\n\n**Fertilizing:** every 14 days in spring and summer.",
			ClimateTips: "Bright indirect light, 18-27 °C, likes humidity.",
		},
		{
			Name:        "Ficus",
			Description: "Classic indoor tree, dislikes being moved.",
			CareRules:   "**Watering:** every 5-7 days.\n\n**Fertilizing:** monthly from March to September.",
			ClimateTips: "Keep away from drafts and radiators.",
		},
		{
			Name:        "Sansevieria",
			Description: "Hardy succulent that tolerates neglect.",
			CareRules:   "**Watering:** every 14-21 days, less in winter.\n\n**Fertilizing:** every 30 days in summer.",
			ClimateTips: "Any light, 15-30 °C.",
		},
		{
			Name:        "Spathiphyllum",
			Description: "Peace lily, droops visibly when thirsty.",
			CareRules:   "**Watering:** every 3-4 days, keep soil moist.\n\n**Fertilizing:** every 14 days while flowering.",
			ClimateTips: "Shade tolerant, spray leaves in dry air.",
		},
		{
			Name:        "Cactus",
			Description: "Desert plant storing water in its stem.",
			CareRules:   "**Watering:** every 14 days in summer, monthly in winter.\n\n**Fertilizing:** every 30 days in the growing season.",
			ClimateTips: "Full sun, cool dry winter rest.",
		},
		{
			Name:        "Phalaenopsis",
			Description: "Moth orchid growing on bark.",
			CareRules:   "**Watering:** soak every 7-10 days, drain fully.\n\n**Fertilizing:** weak solution every 14 days.",
			ClimateTips: "Bright diffused light, no direct midday sun.",
		},
	}
}

// EnsureEncyclopedia 在百科表为空时写入内置数据，已有数据时不做任何修改
func EnsureEncyclopedia(gdb *gorm.DB) (int, error) {
	if gdb == nil {
		return 0, errors.New("database not initialized")
	}

	var count int64
	if err := gdb.Model(&EncyclopediaEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	entries := DefaultEncyclopediaEntries()
	if err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&entries).Error; err != nil {
		return 0, err
	}
	return len(entries), nil
}
