//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"clinic-booking/internal/handler/api"
	"clinic-booking/internal/usecase"
	"clinic-booking/tests/common/httptest"
	usecasemock "clinic-booking/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type VoiceHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockUseCase *usecasemock.MockBookingUseCase
}

func (s *VoiceHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockUseCase = usecasemock.NewMockBookingUseCase(s.mockCtrl)
	handler := api.NewVoiceHandler(s.mockUseCase)

	s.router.POST("/webhooks/voice/book", handler.BookAppointment)
}

func (s *VoiceHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestVoiceHandlerSuite(t *testing.T) {
	suite.Run(t, new(VoiceHandlerTestSuite))
}

func voiceCall(key string) map[string]any {
	return map[string]any{
		"toolCallId": "call-1",
		"arguments": map[string]any{
			"patientId":      "patient-42",
			"slot":           "2026-03-11T13:00:00Z",
			"idempotencyKey": key,
		},
	}
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

func (s *VoiceHandlerTestSuite) TestBookAppointment() {
	url := "/webhooks/voice/book"

	s.Run("booked appointment is spoken back", func() {
		key := uuid.New()
		s.mockUseCase.EXPECT().Book(gomock.Any(), gomock.Any(), key).
			Return(usecase.Result{
				Status: http.StatusCreated,
				Body:   []byte(`{"reservation_id":"r-1","message":"Appointment booked for 2026-03-11T13:00:00Z"}`),
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, voiceCall(key.String()), "")

		var resp toolResult
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("call-1", resp.ToolCallID)
		s.Equal("Appointment booked for 2026-03-11T13:00:00Z", resp.Result)
	})

	s.Run("taken slot becomes a conversational answer, still 200", func() {
		key := uuid.New()
		s.mockUseCase.EXPECT().Book(gomock.Any(), gomock.Any(), key).
			Return(usecase.Result{
				Status: http.StatusConflict,
				Body:   []byte(`{"error":{"code":"SLOT_TAKEN","message":"the requested slot is already booked"}}`),
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, voiceCall(key.String()), "")

		var resp toolResult
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Contains(resp.Result, "just taken")
	})

	s.Run("lock timeout becomes a retry answer", func() {
		key := uuid.New()
		s.mockUseCase.EXPECT().Book(gomock.Any(), gomock.Any(), key).
			Return(usecase.Result{
				Status: http.StatusServiceUnavailable,
				Body:   []byte(`{"error":{"code":"LOCK_TIMEOUT","message":"the slot is contended, please retry"}}`),
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, voiceCall(key.String()), "")

		var resp toolResult
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Contains(resp.Result, "busy right now")
	})

	s.Run("missing idempotency key never reaches the engine", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, voiceCall(""), "")

		s.Equal(http.StatusBadRequest, rec.Code)
		var resp toolResult
		s.Require().NoError(httptest.DecodeResponseBody(s.T(), rec.Body, &resp))
		s.Contains(resp.Result, "idempotency key")
	})

	s.Run("unparsable payload", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, "definitely not a tool call", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
