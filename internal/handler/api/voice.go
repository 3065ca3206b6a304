package api

import (
	"encoding/json"
	"net/http"

	"clinic-booking/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoiceHandler translates voice-assistant tool calls into engine requests.
// The assistant has already resolved the spoken date to an ISO-8601 instant
// before the tool call reaches this webhook.
type VoiceHandler struct {
	bookingUseCase usecase.BookingUseCase
}

func NewVoiceHandler(bookingUseCase usecase.BookingUseCase) *VoiceHandler {
	return &VoiceHandler{
		bookingUseCase: bookingUseCase,
	}
}

type voiceToolCall struct {
	ToolCallID string `json:"toolCallId"`
	Arguments  struct {
		PatientID      string `json:"patientId"`
		Slot           string `json:"slot"`
		IdempotencyKey string `json:"idempotencyKey"`
	} `json:"arguments"`
}

type voiceToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// @Summary Voice booking webhook
// @Description Tool-call endpoint invoked by the voice assistant to book an appointment
// @Tags voice
// @Accept json
// @Produce json
// @Param request body voiceToolCall true "Tool call payload"
// @Success 200 {object} voiceToolResult
// @Failure 400 {object} voiceToolResult
// @Router /webhooks/voice/book [post]
func (h *VoiceHandler) BookAppointment(c *gin.Context) {
	var call voiceToolCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, voiceToolResult{
			Result: "I couldn't understand that booking request.",
		})
		return
	}

	key, err := uuid.Parse(call.Arguments.IdempotencyKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, voiceToolResult{
			ToolCallID: call.ToolCallID,
			Result:     "The booking request was missing its idempotency key.",
		})
		return
	}

	req := usecase.BookingRequest{
		PatientID: call.Arguments.PatientID,
		Slot:      call.Arguments.Slot,
	}

	result, engineErr := h.bookingUseCase.Book(c.Request.Context(), req, key)
	if engineErr != nil {
		_ = c.Error(engineErr)
	}

	// Tool results always travel back as 200; the outcome lives in the
	// spoken message so the assistant can relay it.
	c.JSON(http.StatusOK, voiceToolResult{
		ToolCallID: call.ToolCallID,
		Result:     spokenResult(result),
	})
}

func spokenResult(result usecase.Result) string {
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(result.Body, &body); err != nil {
		return "Something went wrong while booking, please try again."
	}

	switch {
	case result.Status == http.StatusCreated:
		return body.Message
	case body.Error.Code == string(usecase.CodeSlotTaken):
		return "I'm sorry, that time slot was just taken. Would another time work?"
	case body.Error.Code == string(usecase.CodeSlotInPast):
		return "That time has already passed. Could you pick a future time?"
	case body.Error.Code == string(usecase.CodeLockTimeout):
		return "The schedule is busy right now, let me try that again in a moment."
	case body.Error.Message != "":
		return "I couldn't book that: " + body.Error.Message + "."
	default:
		return "Something went wrong while booking, please try again."
	}
}
