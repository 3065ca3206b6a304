//go:build unit || e2e

package builder

import (
	"time"

	dombooking "clinic-booking/internal/domain/booking"
	"clinic-booking/internal/usecase"
)

// BookingBuilder produces booking inputs anchored to a fixed "now" so slot
// validity is deterministic regardless of when the test runs.
type BookingBuilder struct {
	PatientID string
	Slot      string
	Now       time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		PatientID: "patient-42",
		Slot:      now.Add(24 * time.Hour).Format(time.RFC3339),
		Now:       now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	if mutate != nil {
		mutate(b)
	}
	return b
}

func (b *BookingBuilder) WithPatientID(id string) *BookingBuilder {
	b.PatientID = id
	return b
}

func (b *BookingBuilder) WithSlot(slot string) *BookingBuilder {
	b.Slot = slot
	return b
}

func (b *BookingBuilder) BuildRequest() usecase.BookingRequest {
	return usecase.BookingRequest{
		PatientID: b.PatientID,
		Slot:      b.Slot,
	}
}

func (b *BookingBuilder) BuildRequestMap() map[string]any {
	return map[string]any{
		"patient_id": b.PatientID,
		"slot":       b.Slot,
	}
}

func (b *BookingBuilder) BuildDomain() (*dombooking.Reservation, error) {
	patientID, err := dombooking.NewPatientID(b.PatientID)
	if err != nil {
		return nil, err
	}
	slot, err := dombooking.NewSlot(b.Slot, b.Now)
	if err != nil {
		return nil, err
	}
	return dombooking.NewReservation(patientID, slot), nil
}
