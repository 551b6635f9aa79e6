// Package reminder runs the daily care reminder: a small scheduler that fires registered jobs at a
// local wall-clock time, and the scan that turns due care events into notifications.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/plantcare/internal/logging"
	"go.uber.org/zap"
)

var (
	// ErrSchedulerStopped is returned when registering on a stopped scheduler
	ErrSchedulerStopped = errors.New("scheduler stopped")

	// ErrUnknownJob is returned when triggering a key that was never registered
	ErrUnknownJob = errors.New("unknown scheduled job")

	// ErrJobRunning is returned when a manual trigger lands while the job is running
	ErrJobRunning = errors.New("scheduled job already running")

	// ErrInvalidLocalTime is returned for malformed HH:MM values
	ErrInvalidLocalTime = errors.New("invalid local time")
)

// LocalTime is a wall-clock time of day in the scheduler's zone.
type LocalTime struct {
	Hour   int
	Minute int
}

// Midnight is the default reminder time.
var Midnight = LocalTime{}

// ParseLocalTime parses "HH:MM".
func ParseLocalTime(raw string) (LocalTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidLocalTime, raw)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidLocalTime, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidLocalTime, raw)
	}

	return LocalTime{Hour: hour, Minute: minute}, nil
}

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// NextOccurrence returns the first instant strictly after now at which the wall clock in loc reads at.
func NextOccurrence(now time.Time, at LocalTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	y, m, d := local.Date()

	candidate := time.Date(y, m, d, at.Hour, at.Minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(y, m, d+1, at.Hour, at.Minute, 0, 0, loc)
	}
	return candidate
}

// State of a registered job.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Task is the work a job performs on each firing.
type Task func(ctx context.Context) error

type job struct {
	key   string
	at    LocalTime
	task  Task
	state State
	next  time.Time
	timer *time.Timer
}

// JobInfo describes a registered job.
type JobInfo struct {
	Key   string
	At    LocalTime
	State State
	Next  time.Time
}

// Scheduler fires registered jobs once a day at a local time.
type Scheduler struct {
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*job
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler evaluating wall-clock times in loc.
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		loc:    loc,
		logger: logging.OrNop(logger).Named("scheduler"),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*job),
	}
}

// WithClock replaces the clock used to compute delays.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// RegisterDaily arms a job for the next occurrence of at and every day after. Registering an existing
// key keeps the existing job and returns false.
func (s *Scheduler) RegisterDaily(at LocalTime, key string, task Task) (bool, error) {
	if task == nil {
		return false, errors.New("scheduler: nil task")
	}
	if at.Hour < 0 || at.Hour > 23 || at.Minute < 0 || at.Minute > 59 {
		return false, fmt.Errorf("%w: %s", ErrInvalidLocalTime, at)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false, ErrSchedulerStopped
	}
	if _, exists := s.jobs[key]; exists {
		s.logger.Debug("job already registered", zap.String("job", key))
		return false, nil
	}

	j := &job{key: key, at: at, task: task}
	s.jobs[key] = j
	s.armLocked(j)

	s.logger.Info("job registered",
		zap.String("job", key),
		zap.Stringer("at", at),
		zap.Time("next", j.next))
	return true, nil
}

func (s *Scheduler) armLocked(j *job) {
	if j.timer != nil {
		j.timer.Stop()
	}
	now := s.now()
	// 计时器走单调时钟，墙上时钟可能被回拨；从刚触发的时刻往后算，同一时刻不会触发两次
	from := now
	if j.next.After(from) {
		from = j.next
	}
	j.next = NextOccurrence(from, j.at, s.loc)
	j.timer = time.AfterFunc(j.next.Sub(now), func() { s.fire(j) })
}

// fire runs on the timer goroutine. It re-arms first so a slow run never shifts the schedule.
func (s *Scheduler) fire(j *job) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.armLocked(j)

	if j.state == Running {
		s.mu.Unlock()
		FiringsDropped.WithLabelValues(j.key).Inc()
		s.logger.Warn("firing dropped, previous run still active", zap.String("job", j.key))
		return
	}
	j.state = Running
	s.wg.Add(1)
	s.mu.Unlock()

	_ = s.run(s.ctx, j)
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	defer s.wg.Done()

	start := time.Now()
	err := j.task(ctx)

	s.mu.Lock()
	j.state = Idle
	s.mu.Unlock()

	status := "success"
	if err != nil {
		status = "failed"
		s.logger.Error("job failed", zap.String("job", j.key), zap.Error(err))
	} else {
		s.logger.Info("job finished", zap.String("job", j.key), zap.Duration("took", time.Since(start)))
	}
	JobRuns.WithLabelValues(j.key, status).Inc()
	return err
}

// Trigger runs a registered job now, outside its daily slot. It waits for the run to finish and returns
// its error, or ErrJobRunning when the job is already active.
func (s *Scheduler) Trigger(ctx context.Context, key string) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, key)
	}
	if j.state == Running {
		s.mu.Unlock()
		FiringsDropped.WithLabelValues(key).Inc()
		return ErrJobRunning
	}
	j.state = Running
	s.wg.Add(1)
	s.mu.Unlock()

	return s.run(ctx, j)
}

// Registered lists jobs ordered by key.
func (s *Scheduler) Registered() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{Key: j.key, At: j.at, State: j.state, Next: j.next})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out
}

// State reports the state of a job.
func (s *Scheduler) State(key string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[key]
	if !ok {
		return Idle, false
	}
	return j.state, true
}

// Stop disarms every timer, cancels running tasks and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for _, j := range s.jobs {
		if j.timer != nil {
			j.timer.Stop()
		}
	}
	s.mu.Unlock()

	s.logger.Info("stopping scheduler")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown timed out")
		return ctx.Err()
	}
}
