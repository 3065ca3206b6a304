package usecase

import (
	"encoding/json"
	"net/http"

	"clinic-booking/internal/domain/booking"
)

type ErrorCode string

const (
	CodeInvalidPatientID       ErrorCode = "INVALID_PATIENT_ID"
	CodeInvalidSlot            ErrorCode = "INVALID_SLOT"
	CodeSlotInPast             ErrorCode = "SLOT_IN_PAST"
	CodeSlotTaken              ErrorCode = "SLOT_TAKEN"
	CodeIdempotencyKeyMismatch ErrorCode = "IDEMPOTENCY_KEY_MISMATCH"
	CodeLockTimeout            ErrorCode = "LOCK_TIMEOUT"
	CodeInternalError          ErrorCode = "INTERNAL_ERROR"
)

// Result is what adapters render: an HTTP-like status plus the exact body.
// For replayed requests Body is the previously stored bytes, untouched.
type Result struct {
	Status   int
	Body     json.RawMessage
	Replayed bool
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type successBody struct {
	ReservationID string `json:"reservation_id"`
	PatientID     string `json:"patient_id"`
	Slot          string `json:"slot"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

var errorMessages = map[ErrorCode]string{
	CodeInvalidPatientID:       "patient_id is required and must be a non-empty string",
	CodeInvalidSlot:            "slot must be an ISO-8601 instant",
	CodeSlotInPast:             "slot must not be in the past",
	CodeSlotTaken:              "the requested slot is already booked",
	CodeIdempotencyKeyMismatch: "idempotency key was already used with different request parameters",
	CodeLockTimeout:            "the slot is contended, please retry",
	CodeInternalError:          "internal error",
}

var errorStatuses = map[ErrorCode]int{
	CodeInvalidPatientID:       http.StatusBadRequest,
	CodeInvalidSlot:            http.StatusBadRequest,
	CodeSlotInPast:             http.StatusBadRequest,
	CodeSlotTaken:              http.StatusConflict,
	CodeIdempotencyKeyMismatch: http.StatusUnprocessableEntity,
	CodeLockTimeout:            http.StatusServiceUnavailable,
	CodeInternalError:          http.StatusInternalServerError,
}

func newErrorResult(code ErrorCode) Result {
	body, err := json.Marshal(errorBody{Error: errorDetail{Code: code, Message: errorMessages[code]}})
	if err != nil {
		// Marshal of a static struct cannot fail; keep the invariant visible.
		panic(err)
	}
	return Result{Status: errorStatuses[code], Body: body}
}

func newSuccessResult(res *booking.Reservation) Result {
	body, err := json.Marshal(successBody{
		ReservationID: res.ID().String(),
		PatientID:     res.PatientID().String(),
		Slot:          res.Slot().String(),
		Status:        string(res.Status()),
		Message:       "Appointment booked for " + res.Slot().String(),
	})
	if err != nil {
		panic(err)
	}
	return Result{Status: http.StatusCreated, Body: body}
}
