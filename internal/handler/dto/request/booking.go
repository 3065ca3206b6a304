package request

// CreateBookingRequest deliberately carries no binding rules: the engine's
// validator owns patient/slot semantics so HTTP and voice callers get
// identical error codes.
type CreateBookingRequest struct {
	PatientID string `json:"patient_id"`
	Slot      string `json:"slot"`
}
