package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 plantcare.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "plantcare.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := Open(path, logger.Default.LogMode(logger.Warn))
	if err != nil {
		return err
	}
	DB = gdb

	return Migrate(DB)
}

// Open 打开 SQLite 连接。
// SQLite 只允许单写者，这里把连接池限制为 1，写事务天然串行。
func Open(dsn string, log logger.Interface) (*gorm.DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         log,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

// Models 返回需要迁移的全部模型，测试中也复用这份列表。
func Models() []any {
	return []any{
		&User{},
		&Plant{},
		&CareEvent{},
		&Photo{},
		&PlantStatus{},
		&EncyclopediaEntry{},
		&SystemSetting{},
		&Notification{},
	}
}

// Migrate 自动迁移模式，为核心模型创建表
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
