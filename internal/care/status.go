package care

import "time"

// Status is the qualitative state shown next to a plant.
type Status int

const (
	Fine Status = iota
	DueSoon
	Overdue
	RecentlyCared
)

// dueSoonDays is the inclusive horizon for DueSoon.
const dueSoonDays = 2

// recentWindow is how long a completed action keeps a plant in RecentlyCared.
const recentWindow = 24 * time.Hour

func (s Status) String() string {
	switch s {
	case Fine:
		return "fine"
	case DueSoon:
		return "due_soon"
	case Overdue:
		return "overdue"
	case RecentlyCared:
		return "recently_cared"
	default:
		return "unknown"
	}
}

// Glyph is the mood face used by clients.
func (s Status) Glyph() string {
	switch s {
	case Overdue:
		return "😢"
	case RecentlyCared:
		return "🥰"
	case DueSoon:
		return "😐"
	default:
		return "😊"
	}
}

// Event is the schedule-relevant view of a stored care event.
type Event struct {
	Kind        Kind
	PlannedDue  time.Time
	CompletedAt *time.Time
}

// Outstanding reports whether the event still waits for action.
func (e Event) Outstanding() bool {
	return e.CompletedAt == nil
}

// DaysUntil is floor((due - now) / day). One millisecond late already counts as -1.
func DaysUntil(due, now time.Time) int {
	diff := due.UnixMilli() - now.UnixMilli()
	q := diff / DayMillis
	if diff%DayMillis != 0 && diff < 0 {
		q--
	}
	return int(q)
}

// Evaluate maps a plant's events to a Status. Outstanding events drive Overdue and DueSoon;
// completed events only count towards RecentlyCared. Overdue wins over everything else.
func Evaluate(events []Event, now time.Time) Status {
	overdue, recent, soon := false, false, false

	for _, e := range events {
		if !e.Outstanding() {
			elapsed := now.Sub(*e.CompletedAt)
			if elapsed >= 0 && elapsed < recentWindow {
				recent = true
			}
			continue
		}

		days := DaysUntil(e.PlannedDue, now)
		switch {
		case days < 0:
			overdue = true
		case days <= dueSoonDays:
			soon = true
		}
	}

	switch {
	case overdue:
		return Overdue
	case recent:
		return RecentlyCared
	case soon:
		return DueSoon
	default:
		return Fine
	}
}
