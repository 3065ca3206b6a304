package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

// Reservation commits one slot to one patient. At most one booked
// reservation may exist per slot value; the storage layer enforces that
// invariant with a partial unique index and this entity never bypasses it.
type Reservation struct {
	id        uuid.UUID
	patientID PatientID
	slot      Slot
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

func NewReservation(patientID PatientID, slot Slot) *Reservation {
	return &Reservation{
		id:        uuid.New(),
		patientID: patientID,
		slot:      slot,
		status:    StatusBooked,
	}
}

func ReconstructReservation(
	id uuid.UUID,
	patientID PatientID,
	slot Slot,
	status Status,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:        id,
		patientID: patientID,
		slot:      slot,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Cancel is the only allowed transition. Reservations are soft-cancelled for
// audit, never deleted.
func (r *Reservation) Cancel(now time.Time) error {
	if r.status == StatusCancelled {
		return ErrAlreadyCanceled
	}
	r.status = StatusCancelled
	r.updatedAt = now
	return nil
}

func (r *Reservation) IsActive() bool {
	return r.status == StatusBooked
}

func (r *Reservation) ID() uuid.UUID        { return r.id }
func (r *Reservation) PatientID() PatientID { return r.patientID }
func (r *Reservation) Slot() Slot           { return r.slot }
func (r *Reservation) Status() Status       { return r.status }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }
