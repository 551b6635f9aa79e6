package main

import (
	"context"
	"fmt"
	"time"

	"github.com/plantcare/internal/config"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/logging"
	"github.com/plantcare/internal/reminder"
	"github.com/plantcare/internal/service"
	"go.uber.org/zap"
)

const dailyReminderJob = "daily-reminder"

// app 汇总一次进程运行所需的全部依赖
type app struct {
	cfg      config.AppConfig
	logger   *zap.Logger
	services *service.Services
	scanner  *reminder.Scanner
}

// bootstrap 读取配置、初始化日志与数据库，并构造服务层
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		return nil, err
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	if err := db.EnsureUser(db.DB, cfg.AdminLogin, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("管理员账号初始化失败: %w", err)
	}
	seeded, err := db.EnsureEncyclopedia(db.DB)
	if err != nil {
		return nil, fmt.Errorf("百科初始化失败: %w", err)
	}
	if seeded > 0 {
		logger.Info("encyclopedia seeded", zap.Int("entries", seeded))
	}

	services := service.NewServices(db.DB, cfg.PhotoDir, service.SystemSettings{
		NotificationsGranted: cfg.NotificationsDefault,
		Language:             cfg.Language,
	}, logger)

	scanner := reminder.NewScanner(services.Events, services.Plants, services.Notifications, cfg.Location, logger).
		WithSettings(services.Settings).
		WithStatusRefresher(services.Statuses).
		WithLanguage(cfg.Language)

	return &app{cfg: cfg, logger: logger, services: services, scanner: scanner}, nil
}

// startScheduler 注册每日提醒任务。重复注册同一个 key 时保留已有任务。
func (a *app) startScheduler() (*reminder.Scheduler, error) {
	at, err := reminder.ParseLocalTime(a.cfg.ReminderAt)
	if err != nil {
		return nil, err
	}

	sched := reminder.NewScheduler(a.cfg.Location, a.logger)
	if _, err := sched.RegisterDaily(at, dailyReminderJob, a.scanner.Task()); err != nil {
		return nil, err
	}
	for _, info := range sched.Registered() {
		a.logger.Info("reminder job scheduled",
			zap.String("job", info.Key),
			zap.Stringer("at", info.At),
			zap.Time("next_run", info.Next),
		)
	}
	return sched, nil
}

func (a *app) close() {
	if db.DB != nil {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.logger.Sync()
}

func (a *app) now() time.Time {
	return time.Now().In(a.cfg.Location)
}

func (a *app) scanOnce(ctx context.Context) (reminder.ScanResult, error) {
	return a.scanner.Run(ctx, a.now())
}
