package handler

import (
	"context"
	"time"

	"github.com/plantcare/internal/locale"
	"github.com/plantcare/internal/logging"
	"github.com/plantcare/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReminderTrigger 立即执行一次提醒扫描
type ReminderTrigger func(ctx context.Context) error

// Options 汇总 API 的可选配置。
type Options struct {
	Language string
	Location *time.Location
	DevTools bool
	Reminder ReminderTrigger
	Logger   *zap.Logger
	Now      func() time.Time
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	events        *service.CareEventStore
	plants        *service.PlantService
	statuses      *service.StatusService
	photos        *service.PhotoService
	encyclopedia  *service.EncyclopediaService
	users         *service.UserService
	system        *service.SystemSettingService
	notifications *service.NotificationService

	language string
	location *time.Location
	devTools bool
	reminder ReminderTrigger
	logger   *zap.Logger
	now      func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, services *service.Services, opts Options) *API {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &API{
		db:            gdb,
		events:        services.Events,
		plants:        services.Plants,
		statuses:      services.Statuses,
		photos:        services.Photos,
		encyclopedia:  services.Encyclopedia,
		users:         services.Users,
		system:        services.Settings,
		notifications: services.Notifications,
		language:      locale.Resolve(opts.Language),
		location:      opts.Location,
		devTools:      opts.DevTools,
		reminder:      opts.Reminder,
		logger:        logging.OrNop(opts.Logger).Named("http"),
		now:           opts.Now,
	}
}

// DevToolsEnabled 表示是否开放调试接口
func (a *API) DevToolsEnabled() bool {
	return a.devTools
}
