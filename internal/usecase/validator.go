package usecase

import (
	"errors"
	"time"

	"clinic-booking/internal/domain/booking"
)

// BookingRequest is the engine's request shape. Adapters decode transport
// payloads into these two primitives before calling the core.
type BookingRequest struct {
	PatientID string `json:"patient_id"`
	Slot      string `json:"slot"`
}

type ValidatedBooking struct {
	PatientID booking.PatientID
	Slot      booking.Slot
}

// ValidateBooking is a pure function of (request, now): no side effects,
// deterministic given its inputs. Malformed input yields a classified error,
// never a panic.
func ValidateBooking(req BookingRequest, now time.Time) (ValidatedBooking, error) {
	patientID, err := booking.NewPatientID(req.PatientID)
	if err != nil {
		return ValidatedBooking{}, err
	}

	slot, err := booking.NewSlot(req.Slot, now)
	if err != nil {
		return ValidatedBooking{}, err
	}

	return ValidatedBooking{PatientID: patientID, Slot: slot}, nil
}

// ValidationCode maps a validation failure to its taxonomy code; ok is false
// for errors that did not come from validation.
func ValidationCode(err error) (ErrorCode, bool) {
	switch {
	case errors.Is(err, booking.ErrEmptyPatientID):
		return CodeInvalidPatientID, true
	case errors.Is(err, booking.ErrUnparsableSlot):
		return CodeInvalidSlot, true
	case errors.Is(err, booking.ErrSlotInPast):
		return CodeSlotInPast, true
	default:
		return "", false
	}
}
