package usecase

import (
	"time"

	"clinic-booking/internal/domain/booking"

	"github.com/google/uuid"
)

// ReservationView is the read shape handed to adapters.
type ReservationView struct {
	ID        uuid.UUID
	PatientID string
	Slot      time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewReservationView(r *booking.Reservation) *ReservationView {
	return &ReservationView{
		ID:        r.ID(),
		PatientID: r.PatientID().String(),
		Slot:      r.Slot().Time(),
		Status:    string(r.Status()),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}
