package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles every service built on one database handle.
type Services struct {
	Events        *CareEventStore
	Plants        *PlantService
	Statuses      *StatusService
	Photos        *PhotoService
	Encyclopedia  *EncyclopediaService
	Users         *UserService
	Settings      *SystemSettingService
	Notifications *NotificationService
}

// NewServices wires the services sharing gdb. The event store is shared so that every
// write touching a plant's dependents goes through the same lock.
func NewServices(gdb *gorm.DB, photoDir string, defaults SystemSettings, logger *zap.Logger) *Services {
	events := NewCareEventStore(gdb)
	settings := NewSystemSettingService(gdb, defaults)

	return &Services{
		Events:        events,
		Plants:        NewPlantService(gdb, events),
		Statuses:      NewStatusService(gdb, events),
		Photos:        NewPhotoService(gdb, events, photoDir),
		Encyclopedia:  NewEncyclopediaService(gdb),
		Users:         NewUserService(gdb),
		Settings:      settings,
		Notifications: NewNotificationService(gdb, settings, logger),
	}
}
