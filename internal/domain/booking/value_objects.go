package booking

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyPatientID  = errors.New("patient id must not be empty")
	ErrUnparsableSlot  = errors.New("slot is not a parseable instant")
	ErrSlotInPast      = errors.New("slot is in the past")
	ErrAlreadyCanceled = errors.New("reservation is already cancelled")
)

type PatientID struct {
	value string
}

// NewPatientID trims surrounding whitespace; an id that is empty after
// trimming is rejected.
func NewPatientID(raw string) (PatientID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PatientID{}, ErrEmptyPatientID
	}
	return PatientID{value: trimmed}, nil
}

func (p PatientID) String() string {
	return p.value
}

// Slot is a normalized absolute point in time representing one bookable
// appointment start. All comparisons and the uniqueness invariant use the
// normalized (UTC) instant, so "15:00+02:00" and "13:00Z" are the same slot.
type Slot struct {
	at time.Time
}

// NewSlot parses an ISO-8601 instant and checks it against now. The offset
// in the input only affects parsing, never identity.
func NewSlot(raw string, now time.Time) (Slot, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return Slot{}, ErrUnparsableSlot
	}
	if parsed.Before(now) {
		return Slot{}, ErrSlotInPast
	}
	return Slot{at: parsed.UTC()}, nil
}

// SlotFromTime normalizes an already-parsed instant without the past check.
// Used when reconstructing persisted reservations.
func SlotFromTime(t time.Time) Slot {
	return Slot{at: t.UTC()}
}

func (s Slot) Time() time.Time {
	return s.at
}

func (s Slot) Equal(other Slot) bool {
	return s.at.Equal(other.at)
}

func (s Slot) String() string {
	return s.at.Format(time.RFC3339)
}
