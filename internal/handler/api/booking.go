package api

import (
	"errors"
	"net/http"

	reqdto "clinic-booking/internal/handler/dto/request"
	resdto "clinic-booking/internal/handler/dto/response"
	"clinic-booking/internal/handler/httperr"
	"clinic-booking/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	errMissingIdempotencyKey = errors.New("idempotency-key header required")
	errInvalidIdempotencyKey = errors.New("idempotency key must be a valid UUID")
	errInvalidCredentials    = errors.New("invalid client credentials")
)

type BookingHandler struct {
	bookingUseCase usecase.BookingUseCase
}

func NewBookingHandler(bookingUseCase usecase.BookingUseCase) *BookingHandler {
	return &BookingHandler{
		bookingUseCase: bookingUseCase,
	}
}

// @Summary Book an appointment slot
// @Description Create a reservation for a patient; safe to retry with the same Idempotency-Key
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "UUID scoping retry-safety of this request"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} map[string]any
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /reservations [post]
func (h *BookingHandler) CreateReservation(c *gin.Context) {
	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "MISSING_IDEMPOTENCY_KEY", err.Error())
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "INVALID_REQUEST", "Invalid request format")
		return
	}

	result, err := h.bookingUseCase.Book(c.Request.Context(), usecase.BookingRequest(req), idempotencyKey)
	if err != nil {
		// Already classified as INTERNAL_ERROR; keep the cause for the
		// error-logging middleware.
		_ = c.Error(err)
	}

	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.Data(result.Status, "application/json; charset=utf-8", result.Body)
}

// @Summary Get reservation
// @Description Get reservation by ID
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservations/{id} [get]
func (h *BookingHandler) GetReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "INVALID_ID", "Invalid reservation ID format")
		return
	}

	view, err := h.bookingUseCase.GetReservation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrReservationNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "NOT_FOUND", "Reservation not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "INTERNAL_ERROR", "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary List patient reservations
// @Description List all reservations for a patient
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param patient_id query string true "Patient ID"
// @Success 200 {array} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Router /reservations [get]
func (h *BookingHandler) ListReservations(c *gin.Context) {
	patientID := c.Query("patient_id")

	views, err := h.bookingUseCase.ListPatientReservations(c.Request.Context(), patientID)
	if err != nil {
		if _, isValidation := usecase.ValidationCode(err); isValidation {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "INVALID_PATIENT_ID", "patient_id query parameter is required")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "INTERNAL_ERROR", "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationViews(views))
}

// @Summary Cancel reservation
// @Description Soft-cancel a booked reservation; the row is kept for audit
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /reservations/{id} [delete]
func (h *BookingHandler) CancelReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "INVALID_ID", "Invalid reservation ID format")
		return
	}

	view, err := h.bookingUseCase.CancelReservation(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "NOT_FOUND", "Reservation not found")
		case errors.Is(err, usecase.ErrAlreadyCancelled):
			httperr.AbortWithError(c, http.StatusConflict, err, "ALREADY_CANCELLED", "Reservation is already cancelled")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// getIdempotencyKey enforces the caller contract before the core is
// involved: the key must be present and a syntactically valid UUID.
func getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errMissingIdempotencyKey
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errInvalidIdempotencyKey
	}

	return key, nil
}
