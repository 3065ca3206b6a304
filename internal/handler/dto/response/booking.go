package response

import (
	"time"

	"clinic-booking/internal/usecase"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID string    `json:"patient_id"`
	Slot      time.Time `json:"slot"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromReservationView(view *usecase.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	// Field-for-field copy; the view and response share their shape.
	if err := copier.Copy(&resp, view); err != nil {
		return &ReservationResponse{}
	}
	return &resp
}

func FromReservationViews(views []*usecase.ReservationView) []*ReservationResponse {
	resps := make([]*ReservationResponse, len(views))
	for i, v := range views {
		resps[i] = FromReservationView(v)
	}
	return resps
}
