package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/locale"
	"github.com/plantcare/internal/logging"
	"github.com/plantcare/internal/service"
	"go.uber.org/zap"
)

// ErrScanFailed wraps any failure that aborts a scan.
var ErrScanFailed = errors.New("reminder scan failed")

// EventSource lists outstanding events due inside a window.
type EventSource interface {
	OutstandingDueInWindow(ctx context.Context, start, end time.Time) ([]db.CareEvent, error)
}

// PlantLookup resolves the plant an event belongs to.
type PlantLookup interface {
	Get(ctx context.Context, id uint) (*db.Plant, error)
}

// StatusRefresher recomputes the stored status of a plant.
type StatusRefresher interface {
	Refresh(ctx context.Context, plantID uint) error
}

// SettingsSource provides the current notification language.
type SettingsSource interface {
	GetSettings(ctx context.Context) (service.SystemSettings, error)
}

// Window is one reminder tier's half-open range of due times.
type Window struct {
	Tier  service.Tier
	Start time.Time
	End   time.Time
}

// WindowsAt returns the today, tomorrow and in-three-days windows for the calendar day of now in loc.
func WindowsAt(now time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	day := func(offset int) time.Time {
		return time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
	}

	return []Window{
		{Tier: service.TierToday, Start: day(0), End: day(1)},
		{Tier: service.TierTomorrow, Start: day(1), End: day(2)},
		{Tier: service.TierInThreeDays, Start: day(3), End: day(4)},
	}
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Dispatched map[service.Tier]int
	Skipped    int
	Plants     int
}

// Total is the number of reminders dispatched across tiers.
func (r ScanResult) Total() int {
	total := 0
	for _, n := range r.Dispatched {
		total += n
	}
	return total
}

// Scanner turns care events due in the reminder windows into notifications.
type Scanner struct {
	events     EventSource
	plants     PlantLookup
	dispatcher service.Dispatcher
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time

	statuses StatusRefresher
	settings SettingsSource
	language string
}

// NewScanner creates a scanner computing calendar windows in loc.
func NewScanner(events EventSource, plants PlantLookup, dispatcher service.Dispatcher, loc *time.Location, logger *zap.Logger) *Scanner {
	if loc == nil {
		loc = time.Local
	}
	return &Scanner{
		events:     events,
		plants:     plants,
		dispatcher: dispatcher,
		loc:        loc,
		logger:     logging.OrNop(logger).Named("reminder"),
		now:        time.Now,
		language:   locale.LanguageRussian,
	}
}

// WithStatusRefresher refreshes stored statuses of every plant a scan touches.
func (s *Scanner) WithStatusRefresher(r StatusRefresher) *Scanner {
	s.statuses = r
	return s
}

// WithSettings reads the notification language from settings on each scan.
func (s *Scanner) WithSettings(src SettingsSource) *Scanner {
	s.settings = src
	return s
}

// WithLanguage sets the fallback notification language.
func (s *Scanner) WithLanguage(language string) *Scanner {
	s.language = locale.Resolve(language)
	return s
}

// WithClock replaces the clock used by Task.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	if now != nil {
		s.now = now
	}
	return s
}

// Task adapts the scanner for the scheduler.
func (s *Scanner) Task() Task {
	return func(ctx context.Context) error {
		_, err := s.Run(ctx, s.now())
		return err
	}
}

// Run performs one scan at now. A plant that no longer exists skips its event; any other failure aborts
// the scan with ErrScanFailed. Reminders already dispatched before the failure stay dispatched.
func (s *Scanner) Run(ctx context.Context, now time.Time) (ScanResult, error) {
	start := time.Now()
	result := ScanResult{Dispatched: make(map[service.Tier]int, 3)}

	err := s.scan(ctx, now, &result)

	ScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ScansTotal.WithLabelValues("failed").Inc()
		s.logger.Error("scan failed", zap.Error(err))
		return result, err
	}

	ScansTotal.WithLabelValues("success").Inc()
	s.logger.Info("scan finished",
		zap.Int("dispatched", result.Total()),
		zap.Int("skipped", result.Skipped),
		zap.Int("plants", result.Plants))
	return result, nil
}

func (s *Scanner) scan(ctx context.Context, now time.Time, result *ScanResult) error {
	language := s.currentLanguage(ctx)
	touched := make(map[uint]struct{})

	for _, w := range WindowsAt(now, s.loc) {
		events, err := s.events.OutstandingDueInWindow(ctx, w.Start, w.End)
		if err != nil {
			return fmt.Errorf("%w: %s window: %w", ErrScanFailed, w.Tier, err)
		}

		for _, e := range events {
			plant, err := s.plants.Get(ctx, e.PlantID)
			if err != nil {
				if errors.Is(err, service.ErrPlantNotFound) {
					result.Skipped++
					EventsSkipped.Inc()
					s.logger.Warn("plant not found, skipping event",
						zap.Uint("plant_id", e.PlantID),
						zap.Uint("event_id", e.ID))
					continue
				}
				return fmt.Errorf("%w: plant %d: %w", ErrScanFailed, e.PlantID, err)
			}

			title, body := reminderText(w.Tier, language, plant.Name, e.Kind)
			if err := s.dispatcher.Notify(ctx, w.Tier, title, body); err != nil {
				return fmt.Errorf("%w: dispatch %s: %w", ErrScanFailed, w.Tier, err)
			}

			result.Dispatched[w.Tier]++
			RemindersDispatched.WithLabelValues(string(w.Tier)).Inc()
			touched[plant.ID] = struct{}{}
		}
	}

	result.Plants = len(touched)
	s.refreshStatuses(ctx, touched)
	return nil
}

func (s *Scanner) refreshStatuses(ctx context.Context, plantIDs map[uint]struct{}) {
	if s.statuses == nil {
		return
	}
	for id := range plantIDs {
		if err := s.statuses.Refresh(ctx, id); err != nil {
			s.logger.Warn("refresh plant status", zap.Uint("plant_id", id), zap.Error(err))
		}
	}
}

func (s *Scanner) currentLanguage(ctx context.Context) string {
	if s.settings == nil {
		return s.language
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("load settings, using default language", zap.Error(err))
		return s.language
	}
	return locale.Resolve(settings.Language, s.language)
}

func reminderText(tier service.Tier, language, plant, kind string) (string, string) {
	switch tier {
	case service.TierToday:
		return locale.DueTodayText(language, plant, kind)
	case service.TierTomorrow:
		return locale.TomorrowText(language, plant, kind)
	default:
		return locale.InThreeDaysText(language, plant, kind)
	}
}
