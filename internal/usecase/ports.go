package usecase

import (
	"context"
	"time"

	"clinic-booking/internal/domain/booking"
	"clinic-booking/internal/infra/db"

	"github.com/google/uuid"
)

// UnitOfWork brackets the atomic reservation decision. The store is the
// single point of mutual exclusion; nothing in-process serializes bookings.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error
}

type ReservationRepository interface {
	// FindActiveBySlot reports the booked reservation occupying slot, or a
	// NOT_FOUND kind when the slot is free.
	FindActiveBySlot(ctx context.Context, tx db.DBTX, slot booking.Slot) (*booking.Reservation, error)
	Create(ctx context.Context, tx db.DBTX, res *booking.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	FindByPatient(ctx context.Context, patientID booking.PatientID) ([]*booking.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID, now time.Time) error
}

// IdempotencyRecord is the stored outcome of a previously accepted request.
// Immutable after creation; replayed verbatim on retry.
type IdempotencyRecord struct {
	Key                uuid.UUID
	RequestFingerprint string
	ResponseStatus     int
	ResponseBody       []byte
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key uuid.UUID) (*IdempotencyRecord, error)
	// InsertIfAbsent is first-writer-wins: a concurrent duplicate insert for
	// the same key neither errors nor overwrites the stored result. A nil tx
	// runs the insert outside any transaction.
	InsertIfAbsent(ctx context.Context, tx db.DBTX, key uuid.UUID, fingerprint string, status int, body []byte, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
