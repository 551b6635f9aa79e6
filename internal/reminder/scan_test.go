package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type fakeEvents struct {
	events []db.CareEvent
	err    error
}

func (f *fakeEvents) OutstandingDueInWindow(_ context.Context, start, end time.Time) ([]db.CareEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []db.CareEvent
	for _, e := range f.events {
		if e.CompletedAt == nil && e.PlannedAt >= start.UnixMilli() && e.PlannedAt < end.UnixMilli() {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePlants struct {
	plants map[uint]db.Plant
	err    error
}

func (f *fakePlants) Get(_ context.Context, id uint) (*db.Plant, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.plants[id]
	if !ok {
		return nil, service.ErrPlantNotFound
	}
	return &p, nil
}

type sent struct {
	tier  service.Tier
	title string
	body  string
}

type fakeDispatcher struct {
	sent []sent
	err  error
}

func (f *fakeDispatcher) Notify(_ context.Context, tier service.Tier, title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{tier: tier, title: title, body: body})
	return nil
}

func TestWindowsAtUsesLocalCalendarDays(t *testing.T) {
	loc := moscow(t)
	now := time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC) // 01:30 May 11 in Moscow

	windows := WindowsAt(now, loc)
	require.Len(t, windows, 3)

	require.Equal(t, service.TierToday, windows[0].Tier)
	require.True(t, windows[0].Start.Equal(time.Date(2024, 5, 11, 0, 0, 0, 0, loc)))
	require.True(t, windows[0].End.Equal(time.Date(2024, 5, 12, 0, 0, 0, 0, loc)))

	require.Equal(t, service.TierTomorrow, windows[1].Tier)
	require.True(t, windows[1].Start.Equal(windows[0].End))

	require.Equal(t, service.TierInThreeDays, windows[2].Tier)
	require.True(t, windows[2].Start.Equal(time.Date(2024, 5, 14, 0, 0, 0, 0, loc)))
	require.True(t, windows[2].End.Equal(time.Date(2024, 5, 15, 0, 0, 0, 0, loc)))
}

func TestScannerDispatchesPerTier(t *testing.T) {
	loc := moscow(t)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)
	at := func(days int, hour int) int64 {
		return time.Date(2024, 5, 10+days, hour, 0, 0, 0, loc).UnixMilli()
	}

	events := &fakeEvents{events: []db.CareEvent{
		{ID: 1, PlantID: 1, Kind: string(care.Watering), PlannedAt: at(0, 18)},
		{ID: 2, PlantID: 2, Kind: string(care.Fertilizing), PlannedAt: at(1, 9)},
		{ID: 3, PlantID: 1, Kind: string(care.Fertilizing), PlannedAt: at(2, 9)},
		{ID: 4, PlantID: 2, Kind: string(care.Watering), PlannedAt: at(3, 23)},
		{ID: 5, PlantID: 3, Kind: string(care.Watering), PlannedAt: at(-1, 12)},
	}}
	plants := &fakePlants{plants: map[uint]db.Plant{
		1: {ID: 1, Name: "Monstera"},
		2: {ID: 2, Name: "Ficus"},
		3: {ID: 3, Name: "Cactus"},
	}}
	dispatcher := &fakeDispatcher{}

	scanner := NewScanner(events, plants, dispatcher, loc, nil)
	result, err := scanner.Run(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, dispatcher.sent, 3)
	require.Equal(t, service.TierToday, dispatcher.sent[0].tier)
	require.Equal(t, "Пора полить!", dispatcher.sent[0].title)
	require.Contains(t, dispatcher.sent[0].body, "Monstera")

	require.Equal(t, service.TierTomorrow, dispatcher.sent[1].tier)
	require.Contains(t, dispatcher.sent[1].title, "Ficus")

	require.Equal(t, service.TierInThreeDays, dispatcher.sent[2].tier)
	require.Contains(t, dispatcher.sent[2].body, "Ficus")

	require.Equal(t, 3, result.Total())
	require.Equal(t, 2, result.Plants)
	require.Zero(t, result.Skipped)
}

func TestScannerWindowBoundaries(t *testing.T) {
	loc := moscow(t)
	startOfToday := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)

	events := &fakeEvents{events: []db.CareEvent{
		// ровно полночь сегодня входит в окно "сегодня"
		{ID: 1, PlantID: 1, Kind: string(care.Watering), PlannedAt: startOfToday.UnixMilli()},
		// последняя миллисекунда перед окном "через три дня"
		{ID: 2, PlantID: 1, Kind: string(care.Fertilizing), PlannedAt: startOfToday.AddDate(0, 0, 3).UnixMilli() - 1},
		// конец окна "через три дня" не включается
		{ID: 3, PlantID: 1, Kind: string(care.Fertilizing), PlannedAt: startOfToday.AddDate(0, 0, 4).UnixMilli()},
	}}
	plants := &fakePlants{plants: map[uint]db.Plant{1: {ID: 1, Name: "Monstera"}}}
	dispatcher := &fakeDispatcher{}

	scanner := NewScanner(events, plants, dispatcher, loc, nil)
	result, err := scanner.Run(context.Background(), startOfToday)
	require.NoError(t, err)

	require.Len(t, dispatcher.sent, 1)
	require.Equal(t, service.TierToday, dispatcher.sent[0].tier)
	require.Equal(t, 1, result.Dispatched[service.TierToday])
	require.Zero(t, result.Dispatched[service.TierTomorrow])
	require.Zero(t, result.Dispatched[service.TierInThreeDays])
	require.Equal(t, 1, result.Total())
}

func TestScannerSkipsMissingPlants(t *testing.T) {
	loc := moscow(t)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)

	events := &fakeEvents{events: []db.CareEvent{
		{ID: 1, PlantID: 42, Kind: string(care.Watering), PlannedAt: now.Add(time.Hour).UnixMilli()},
		{ID: 2, PlantID: 1, Kind: string(care.Watering), PlannedAt: now.Add(2 * time.Hour).UnixMilli()},
	}}
	plants := &fakePlants{plants: map[uint]db.Plant{1: {ID: 1, Name: "Ficus"}}}
	dispatcher := &fakeDispatcher{}

	result, err := NewScanner(events, plants, dispatcher, loc, nil).WithLanguage("en").Run(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, dispatcher.sent, 1)
	require.Equal(t, "Time to water!", dispatcher.sent[0].title)
}

func TestScannerFailures(t *testing.T) {
	loc := moscow(t)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)
	event := db.CareEvent{ID: 1, PlantID: 1, Kind: string(care.Watering), PlannedAt: now.Add(time.Hour).UnixMilli()}
	plant := map[uint]db.Plant{1: {ID: 1, Name: "Ficus"}}
	storeErr := errors.New("disk on fire")

	cases := []struct {
		name       string
		events     *fakeEvents
		plants     *fakePlants
		dispatcher *fakeDispatcher
	}{
		{
			name:       "event query",
			events:     &fakeEvents{err: storeErr},
			plants:     &fakePlants{plants: plant},
			dispatcher: &fakeDispatcher{},
		},
		{
			name:       "plant lookup",
			events:     &fakeEvents{events: []db.CareEvent{event}},
			plants:     &fakePlants{err: storeErr},
			dispatcher: &fakeDispatcher{},
		},
		{
			name:       "dispatch",
			events:     &fakeEvents{events: []db.CareEvent{event}},
			plants:     &fakePlants{plants: plant},
			dispatcher: &fakeDispatcher{err: storeErr},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScanner(tc.events, tc.plants, tc.dispatcher, loc, nil).Run(context.Background(), now)
			require.ErrorIs(t, err, ErrScanFailed)
			require.ErrorIs(t, err, storeErr)
		})
	}
}

func TestScannerWithStoredNotifications(t *testing.T) {
	loc := moscow(t)
	gdb, err := db.Open(fmt.Sprintf("file:reminder-%d?mode=memory&cache=shared", time.Now().UnixNano()), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	services := service.NewServices(gdb, t.TempDir(), service.SystemSettings{NotificationsGranted: true, Language: "ru"}, nil)
	ctx := context.Background()

	created := time.Date(2024, 5, 9, 12, 0, 0, 0, loc)
	services.Plants.WithClock(func() time.Time { return created })
	services.Statuses.WithClock(func() time.Time { return created })

	first, _, err := services.Plants.Create(ctx, 1, service.PlantInput{Name: "Monstera", WateringIntervalDays: 2, FertilizingIntervalDays: 30})
	require.NoError(t, err)
	_, _, err = services.Plants.Create(ctx, 1, service.PlantInput{Name: "Ficus", WateringIntervalDays: 2, FertilizingIntervalDays: 30})
	require.NoError(t, err)

	scanner := NewScanner(services.Events, services.Plants, services.Notifications, loc, nil).
		WithSettings(services.Settings).
		WithStatusRefresher(services.Statuses)

	// Both plants need water on May 11, which is "tomorrow" on May 10.
	result, err := scanner.Run(ctx, time.Date(2024, 5, 10, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	require.Equal(t, 2, result.Dispatched[service.TierTomorrow])

	items, err := services.Notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, service.TierTomorrow.Slot(), items[0].Slot)
	require.True(t, strings.Contains(items[0].Title, "Ficus") || strings.Contains(items[0].Title, "Monstera"))

	snapshots, err := services.Statuses.Snapshots(ctx, []uint{first.ID})
	require.NoError(t, err)
	require.Equal(t, care.DueSoon.String(), snapshots[first.ID].Status)

	require.NoError(t, services.Settings.SetNotificationPermission(ctx, false))
	require.NoError(t, services.Notifications.Dismiss(ctx, service.TierTomorrow))
	_, err = scanner.Run(ctx, time.Date(2024, 5, 10, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	items, err = services.Notifications.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}
