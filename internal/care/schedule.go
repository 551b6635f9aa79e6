// Package care holds the pure scheduling rules for plant care: which kinds of care exist,
// when the next one is due, and how a plant's outstanding events translate into a status.
// Nothing here touches storage or the clock.
package care

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies a recurring care action.
type Kind string

const (
	Watering    Kind = "watering"
	Fertilizing Kind = "fertilizing"
)

// Day is one scheduling day. Intervals are counted in whole days of this length.
const Day = 24 * time.Hour

// DayMillis is Day expressed in milliseconds, the unit events are persisted in.
const DayMillis int64 = 86_400_000

// MaxIntervalDays is the longest accepted care interval, one hundred years.
const MaxIntervalDays = 36500

// maxStepDays keeps a single Duration multiplication far below the int64 limit.
const maxStepDays = 100_000

var (
	// ErrUnknownKind is returned when a care kind is not registered.
	ErrUnknownKind = errors.New("unknown care kind")
	// ErrInvalidInterval is returned for intervals shorter than one day.
	ErrInvalidInterval = errors.New("care interval must be between 1 and 36500 days")
)

// kinds lists every supported care kind in display order. New kinds are added here.
var kinds = []Kind{Watering, Fertilizing}

// Kinds returns the supported care kinds in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind normalizes raw input into a registered Kind.
func ParseKind(raw string) (Kind, error) {
	candidate := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, k := range kinds {
		if k == candidate {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Valid reports whether k is a registered kind.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// NextDue returns reference advanced by intervalDays whole days.
// The advance is applied in bounded steps so large intervals never wrap a Duration.
func NextDue(reference time.Time, intervalDays int) time.Time {
	due := reference
	for remaining := intervalDays; remaining != 0; {
		step := remaining
		if step > maxStepDays {
			step = maxStepDays
		} else if step < -maxStepDays {
			step = -maxStepDays
		}
		due = due.Add(time.Duration(step) * Day)
		remaining -= step
	}
	return due
}

// NextDueMillis is NextDue on epoch milliseconds.
func NextDueMillis(referenceMs int64, intervalDays int) int64 {
	return referenceMs + int64(intervalDays)*DayMillis
}

// ValidateInterval rejects intervals below one day or above MaxIntervalDays.
func ValidateInterval(days int) error {
	if days < 1 || days > MaxIntervalDays {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, days)
	}
	return nil
}

// Intervals maps each care kind to its interval in days.
type Intervals map[Kind]int

// Validate checks that every registered kind has an interval of at least one day
// and that no unknown kind is present.
func (iv Intervals) Validate() error {
	for k := range iv {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	}
	for _, k := range kinds {
		days, ok := iv[k]
		if !ok {
			return fmt.Errorf("%w: missing %s interval", ErrInvalidInterval, k)
		}
		if err := ValidateInterval(days); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// Planned is a freshly computed due date for one kind.
type Planned struct {
	Kind Kind
	Due  time.Time
}

// Plan computes the next due date for every kind from the same reference moment.
// Used when a plant is created and when its intervals are edited.
func Plan(reference time.Time, iv Intervals) ([]Planned, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	planned := make([]Planned, 0, len(kinds))
	for _, k := range kinds {
		planned = append(planned, Planned{Kind: k, Due: NextDue(reference, iv[k])})
	}
	return planned, nil
}
