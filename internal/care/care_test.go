package care

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextDue(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	for _, days := range []int{1, 2, 7, 30, 365} {
		got := NextDue(t0, days)
		require.Equal(t, t0.UnixMilli()+int64(days)*86_400_000, got.UnixMilli())
		require.Equal(t, got.UnixMilli(), NextDueMillis(t0.UnixMilli(), days))
		require.True(t, NextDue(t0, days+1).After(got), "must increase with interval")
		require.True(t, NextDue(t0.Add(time.Millisecond), days).After(got), "must increase with reference")
	}
}

func TestNextDueLargeIntervals(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	prev := t0
	for _, days := range []int{MaxIntervalDays, 106_751, 106_752, 200_000, 250_001} {
		got := NextDue(t0, days)
		require.True(t, got.After(prev), "days=%d must move forward", days)
		require.Equal(t, NextDueMillis(t0.UnixMilli(), days), got.UnixMilli(), "days=%d", days)
		prev = got
	}

	events := []Event{{PlannedDue: NextDue(t0, 200_000)}}
	require.Equal(t, Fine, Evaluate(events, t0))
}

func TestValidateIntervalBounds(t *testing.T) {
	require.NoError(t, ValidateInterval(1))
	require.NoError(t, ValidateInterval(MaxIntervalDays))
	require.ErrorIs(t, ValidateInterval(0), ErrInvalidInterval)
	require.ErrorIs(t, ValidateInterval(MaxIntervalDays+1), ErrInvalidInterval)
	require.ErrorIs(t, Intervals{Watering: 200_000, Fertilizing: 30}.Validate(), ErrInvalidInterval)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Watering ")
	require.NoError(t, err)
	require.Equal(t, Watering, k)

	_, err = ParseKind("repotting")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestIntervalsValidate(t *testing.T) {
	require.NoError(t, Intervals{Watering: 7, Fertilizing: 30}.Validate())
	require.ErrorIs(t, Intervals{Watering: 0, Fertilizing: 30}.Validate(), ErrInvalidInterval)
	require.ErrorIs(t, Intervals{Watering: 7}.Validate(), ErrInvalidInterval)
	require.ErrorIs(t, Intervals{Watering: 7, Fertilizing: 3, "misting": 1}.Validate(), ErrUnknownKind)
}

func TestPlan(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	planned, err := Plan(t0, Intervals{Watering: 7, Fertilizing: 30})
	require.NoError(t, err)
	require.Len(t, planned, 2)
	require.Equal(t, Watering, planned[0].Kind)
	require.Equal(t, t0.Add(7*Day), planned[0].Due)
	require.Equal(t, Fertilizing, planned[1].Kind)
	require.Equal(t, t0.Add(30*Day), planned[1].Due)

	_, err = Plan(t0, Intervals{Watering: -1, Fertilizing: 30})
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{name: "same instant", due: now, want: 0},
		{name: "one ms late", due: now.Add(-time.Millisecond), want: -1},
		{name: "almost a day ahead", due: now.Add(Day - time.Millisecond), want: 0},
		{name: "exactly a day ahead", due: now.Add(Day), want: 1},
		{name: "exactly a day late", due: now.Add(-Day), want: -1},
		{name: "a day and a bit late", due: now.Add(-Day - time.Millisecond), want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DaysUntil(tt.due, now))
		})
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	doneAt := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name   string
		events []Event
		want   Status
	}{
		{name: "no events", events: nil, want: Fine},
		{
			name:   "far away",
			events: []Event{{Kind: Watering, PlannedDue: now.Add(5 * Day)}},
			want:   Fine,
		},
		{
			name:   "due in two days",
			events: []Event{{Kind: Watering, PlannedDue: now.Add(2*Day + time.Hour)}},
			want:   DueSoon,
		},
		{
			name:   "due today",
			events: []Event{{Kind: Fertilizing, PlannedDue: now.Add(time.Hour)}},
			want:   DueSoon,
		},
		{
			name: "overdue beats recent care",
			events: []Event{
				{Kind: Watering, PlannedDue: now.Add(-time.Minute)},
				{Kind: Fertilizing, PlannedDue: now.Add(-Day), CompletedAt: doneAt(time.Hour)},
			},
			want: Overdue,
		},
		{
			name: "recent care beats due soon",
			events: []Event{
				{Kind: Watering, PlannedDue: now.Add(-2 * Day), CompletedAt: doneAt(2 * time.Hour)},
				{Kind: Watering, PlannedDue: now.Add(7 * Day)},
				{Kind: Fertilizing, PlannedDue: now.Add(Day)},
			},
			want: RecentlyCared,
		},
		{
			name: "care older than a day is ignored",
			events: []Event{
				{Kind: Watering, PlannedDue: now.Add(-3 * Day), CompletedAt: doneAt(25 * time.Hour)},
				{Kind: Watering, PlannedDue: now.Add(6 * Day)},
			},
			want: Fine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Evaluate(tt.events, now))
			require.Equal(t, tt.want, Evaluate(tt.events, now), "evaluation must be repeatable")
		})
	}
}

func TestCreatedPlantLifecycle(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	planned, err := Plan(t0, Intervals{Watering: 7, Fertilizing: 30})
	require.NoError(t, err)

	events := make([]Event, 0, len(planned))
	for _, p := range planned {
		events = append(events, Event{Kind: p.Kind, PlannedDue: p.Due})
	}
	require.Equal(t, t0.UnixMilli()+7*DayMillis, events[0].PlannedDue.UnixMilli())
	require.Equal(t, Fine, Evaluate(events, t0))

	late := events[0].PlannedDue.Add(time.Millisecond)
	require.Equal(t, -1, DaysUntil(events[0].PlannedDue, late))
	require.Equal(t, Overdue, Evaluate(events, late))
}

func TestStatusPresentation(t *testing.T) {
	require.Equal(t, "overdue", Overdue.String())
	require.Equal(t, "😢", Overdue.Glyph())
	require.Equal(t, "🥰", RecentlyCared.Glyph())
	require.Equal(t, "😐", DueSoon.Glyph())
	require.Equal(t, "😊", Fine.Glyph())
}
