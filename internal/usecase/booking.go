package usecase

import (
	"context"
	"log/slog"
	"time"

	"clinic-booking/internal/domain/booking"
	"clinic-booking/internal/infra"
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/pkg/clock"
	"clinic-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrAlreadyCancelled    = errs.New("reservation already cancelled")

	errSlotTaken = errs.New("slot already booked")
)

type BookingUseCase interface {
	// Book decides, under arbitrary concurrency, whether the requested slot
	// is committed to the patient. All outcomes are encoded in the Result;
	// the error return carries the cause only when Result is INTERNAL_ERROR.
	Book(ctx context.Context, req BookingRequest, idempotencyKey uuid.UUID) (Result, error)

	GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListPatientReservations(ctx context.Context, patientID string) ([]*ReservationView, error)
	CancelReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error)
}

type bookingUseCaseImpl struct {
	reservationRepo ReservationRepository
	idempotencyRepo IdempotencyRepository
	uow             UnitOfWork
	clock           clock.Clock
	responseTTL     time.Duration
}

func NewBookingUseCase(
	reservationRepo ReservationRepository,
	idempotencyRepo IdempotencyRepository,
	uow UnitOfWork,
	clk clock.Clock,
	responseTTL time.Duration,
) BookingUseCase {
	return &bookingUseCaseImpl{
		reservationRepo: reservationRepo,
		idempotencyRepo: idempotencyRepo,
		uow:             uow,
		clock:           clk,
		responseTTL:     responseTTL,
	}
}

func (u *bookingUseCaseImpl) Book(ctx context.Context, req BookingRequest, idempotencyKey uuid.UUID) (Result, error) {
	fingerprint := Fingerprint(req)

	replay, result, err := u.lookupIdempotency(ctx, idempotencyKey, fingerprint)
	if err != nil {
		return newErrorResult(CodeInternalError), err
	}
	if replay {
		return result, nil
	}

	validated, validationErr := ValidateBooking(req, u.clock.Now())
	if validationErr != nil {
		code, ok := ValidationCode(validationErr)
		if !ok {
			return newErrorResult(CodeInternalError), errs.Wrap(validationErr, "unclassified validation failure")
		}
		res := newErrorResult(code)
		u.record(ctx, idempotencyKey, fingerprint, res)
		return res, nil
	}

	return u.reserve(ctx, validated, idempotencyKey, fingerprint)
}

// lookupIdempotency reports (true, cached result) on a fingerprint hit, and
// (true, mismatch result) when the key was reused with different parameters.
// The mismatch answer is terminal for this call only and is never cached.
func (u *bookingUseCaseImpl) lookupIdempotency(ctx context.Context, key uuid.UUID, fingerprint string) (bool, Result, error) {
	rec, err := u.idempotencyRepo.Get(ctx, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return false, Result{}, nil
		}
		return false, Result{}, errs.Wrap(err, "idempotency lookup failed")
	}

	if rec.RequestFingerprint != fingerprint {
		return true, newErrorResult(CodeIdempotencyKeyMismatch), nil
	}

	return true, Result{Status: rec.ResponseStatus, Body: rec.ResponseBody, Replayed: true}, nil
}

// reserve runs the check-then-insert protocol as one atomic unit. The
// pre-check is a fast path for a clean SLOT_TAKEN; the partial unique index
// on booked slots is the backstop that decides races the pre-check misses.
func (u *bookingUseCaseImpl) reserve(ctx context.Context, validated ValidatedBooking, key uuid.UUID, fingerprint string) (Result, error) {
	var result Result

	err := u.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, findErr := u.reservationRepo.FindActiveBySlot(ctx, tx, validated.Slot)
		if findErr == nil {
			return errSlotTaken
		}
		if !infra.IsKind(findErr, infra.KindNotFound) {
			return findErr
		}

		reservation := booking.NewReservation(validated.PatientID, validated.Slot)
		if createErr := u.reservationRepo.Create(ctx, tx, reservation); createErr != nil {
			return createErr
		}

		// The success outcome commits atomically with the reservation, so a
		// replayed retry can never observe the booking without its cached
		// response.
		result = newSuccessResult(reservation)
		return u.idempotencyRepo.InsertIfAbsent(ctx, tx, key, fingerprint, result.Status, result.Body, u.expiry())
	})
	if err == nil {
		return result, nil
	}

	switch {
	case errs.Is(err, errSlotTaken), infra.IsKind(err, infra.KindConflict):
		res := newErrorResult(CodeSlotTaken)
		u.record(ctx, key, fingerprint, res)
		return res, nil
	case infra.IsKind(err, infra.KindLockTimeout):
		// Not yet decided: never cached, so the same key retries the full
		// protocol.
		return newErrorResult(CodeLockTimeout), nil
	default:
		return newErrorResult(CodeInternalError), errs.Wrap(err, "reservation protocol failed")
	}
}

// record stores a terminal outcome under the key, outside any transaction.
// Insert-if-absent keeps the first writer's answer; a lost write only costs
// a repeat of the same deterministic work on the next retry.
func (u *bookingUseCaseImpl) record(ctx context.Context, key uuid.UUID, fingerprint string, res Result) {
	err := u.idempotencyRepo.InsertIfAbsent(ctx, nil, key, fingerprint, res.Status, res.Body, u.expiry())
	if err != nil {
		slog.Warn("failed to record idempotent outcome", "key", key.String(), "error", err.Error())
	}
}

func (u *bookingUseCaseImpl) expiry() time.Time {
	return u.clock.Now().Add(u.responseTTL)
}

func (u *bookingUseCaseImpl) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	res, err := u.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Wrap(err, "failed to find reservation")
	}

	return NewReservationView(res), nil
}

func (u *bookingUseCaseImpl) ListPatientReservations(ctx context.Context, patientID string) ([]*ReservationView, error) {
	pid, err := booking.NewPatientID(patientID)
	if err != nil {
		return nil, err
	}

	reservations, err := u.reservationRepo.FindByPatient(ctx, pid)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list patient reservations")
	}

	views := make([]*ReservationView, len(reservations))
	for i, res := range reservations {
		views[i] = NewReservationView(res)
	}
	return views, nil
}

func (u *bookingUseCaseImpl) CancelReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	reservation, err := u.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Wrap(err, "failed to find reservation")
	}

	now := u.clock.Now()
	if err := reservation.Cancel(now); err != nil {
		return nil, errs.Mark(err, ErrAlreadyCancelled)
	}

	if err := u.reservationRepo.Cancel(ctx, id, now); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Lost a race with another canceller after the read.
			return nil, ErrAlreadyCancelled
		}
		return nil, errs.Wrap(err, "failed to cancel reservation")
	}

	return NewReservationView(reservation), nil
}
