package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

func TestParseLocalTime(t *testing.T) {
	at, err := ParseLocalTime(" 07:30 ")
	require.NoError(t, err)
	require.Equal(t, LocalTime{Hour: 7, Minute: 30}, at)
	require.Equal(t, "07:30", at.String())

	for _, raw := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := ParseLocalTime(raw)
		require.ErrorIs(t, err, ErrInvalidLocalTime, raw)
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := moscow(t)

	cases := []struct {
		name string
		now  time.Time
		at   LocalTime
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 5, 10, 6, 0, 0, 0, loc),
			at:   LocalTime{Hour: 9},
			want: time.Date(2024, 5, 10, 9, 0, 0, 0, loc),
		},
		{
			name: "midnight rolls to next day",
			now:  time.Date(2024, 5, 10, 10, 0, 0, 0, loc),
			at:   Midnight,
			want: time.Date(2024, 5, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "exactly at occurrence moves to tomorrow",
			now:  time.Date(2024, 5, 10, 0, 0, 0, 0, loc),
			at:   Midnight,
			want: time.Date(2024, 5, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "month end",
			now:  time.Date(2024, 5, 31, 23, 59, 0, 0, loc),
			at:   Midnight,
			want: time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
		},
		{
			name: "utc input uses local calendar",
			now:  time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC), // 01:30 on May 11 in Moscow
			at:   Midnight,
			want: time.Date(2024, 5, 12, 0, 0, 0, 0, loc),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.now, tc.at, loc)
			require.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
			require.True(t, got.After(tc.now))
		})
	}
}

func TestRegisterDailyKeepsExisting(t *testing.T) {
	loc := moscow(t)
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, loc)
	s := NewScheduler(loc, nil).WithClock(func() time.Time { return now })
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	var firstRuns, secondRuns atomic.Int32
	created, err := s.RegisterDaily(Midnight, "daily-reminder", func(context.Context) error {
		firstRuns.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.RegisterDaily(LocalTime{Hour: 8}, "daily-reminder", func(context.Context) error {
		secondRuns.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.False(t, created)

	jobs := s.Registered()
	require.Len(t, jobs, 1)
	require.Equal(t, Midnight, jobs[0].At)
	require.True(t, jobs[0].Next.Equal(time.Date(2024, 5, 11, 0, 0, 0, 0, loc)))
	require.Equal(t, Idle, jobs[0].State)

	require.NoError(t, s.Trigger(context.Background(), "daily-reminder"))
	require.Equal(t, int32(1), firstRuns.Load())
	require.Equal(t, int32(0), secondRuns.Load())

	require.ErrorIs(t, s.Trigger(context.Background(), "missing"), ErrUnknownJob)
}

func TestFiringWhileRunningIsDropped(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var runs atomic.Int32

	_, err := s.RegisterDaily(Midnight, "slow", func(ctx context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Trigger(context.Background(), "slow") }()
	<-started

	state, ok := s.State("slow")
	require.True(t, ok)
	require.Equal(t, Running, state)

	require.ErrorIs(t, s.Trigger(context.Background(), "slow"), ErrJobRunning)

	s.mu.Lock()
	j := s.jobs["slow"]
	s.mu.Unlock()
	s.fire(j)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, int32(1), runs.Load())

	state, _ = s.State("slow")
	require.Equal(t, Idle, state)
}

func TestFireAfterClockStepBackArmsNextDay(t *testing.T) {
	loc := moscow(t)
	var mu sync.Mutex
	now := time.Date(2024, 5, 10, 23, 59, 50, 0, loc)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	s := NewScheduler(loc, nil).WithClock(clock)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	var runs atomic.Int32
	_, err := s.RegisterDaily(Midnight, "daily-reminder", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	slot := time.Date(2024, 5, 11, 0, 0, 0, 0, loc)
	require.True(t, s.Registered()[0].Next.Equal(slot))

	// 计时器到点时墙上时钟被回拨了几秒
	mu.Lock()
	now = slot.Add(-3 * time.Second)
	mu.Unlock()

	s.mu.Lock()
	j := s.jobs["daily-reminder"]
	s.mu.Unlock()
	s.fire(j)

	require.Equal(t, int32(1), runs.Load())
	require.True(t, s.Registered()[0].Next.Equal(time.Date(2024, 5, 12, 0, 0, 0, 0, loc)),
		"next firing must be the following day, got %v", s.Registered()[0].Next)
}

func TestTriggerReturnsTaskError(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	boom := errors.New("boom")
	_, err := s.RegisterDaily(Midnight, "failing", func(context.Context) error { return boom })
	require.NoError(t, err)

	require.ErrorIs(t, s.Trigger(context.Background(), "failing"), boom)

	state, _ := s.State("failing")
	require.Equal(t, Idle, state)
}

func TestStopCancelsRunningTaskAndRejectsRegistration(t *testing.T) {
	s := NewScheduler(time.UTC, nil)

	started := make(chan struct{})
	_, err := s.RegisterDaily(Midnight, "blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	s.mu.Lock()
	j := s.jobs["blocking"]
	s.mu.Unlock()
	go s.fire(j)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	_, err = s.RegisterDaily(Midnight, "late", func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrSchedulerStopped)
	require.ErrorIs(t, s.Trigger(context.Background(), "blocking"), ErrSchedulerStopped)
}
