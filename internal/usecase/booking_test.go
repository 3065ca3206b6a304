//go:build unit

package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"clinic-booking/internal/domain/booking"
	"clinic-booking/internal/infra"
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/pkg/clock"
	"clinic-booking/internal/usecase"
	"clinic-booking/tests/common/builder"
	usecasemock "clinic-booking/tests/mock/usecase"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const responseTTL = 24 * time.Hour

type BookingUseCaseTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	reservationRepo *usecasemock.MockReservationRepository
	idempotencyRepo *usecasemock.MockIdempotencyRepository
	uow             *usecasemock.MockUnitOfWork
	clk             *clock.MockClock
	uc              usecase.BookingUseCase
}

func (s *BookingUseCaseTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.reservationRepo = usecasemock.NewMockReservationRepository(s.mockCtrl)
	s.idempotencyRepo = usecasemock.NewMockIdempotencyRepository(s.mockCtrl)
	s.uow = usecasemock.NewMockUnitOfWork(s.mockCtrl)
	s.clk = clock.NewMockClock(mustParseTime(s.T(), "2026-03-10T09:00:00Z"))
	s.uc = usecase.NewBookingUseCase(s.reservationRepo, s.idempotencyRepo, s.uow, s.clk, responseTTL)
}

func (s *BookingUseCaseTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingUseCaseSuite(t *testing.T) {
	suite.Run(t, new(BookingUseCaseTestSuite))
}

func mustParseTime(t interface{ Fatalf(string, ...any) }, value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

// expectMiss arranges an idempotency cache miss for any key.
func (s *BookingUseCaseTestSuite) expectMiss() {
	s.idempotencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(nil, infra.WrapRepoErr("record not found", nil, infra.KindNotFound))
}

// passthroughUoW runs the transactional closure directly; the repositories
// are mocked so no real transaction is needed.
func (s *BookingUseCaseTestSuite) passthroughUoW() {
	s.uow.EXPECT().Within(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, db.DBTX) error) error {
			return fn(ctx, nil)
		})
}

func notFoundErr() error {
	return infra.WrapRepoErr("no rows", nil, infra.KindNotFound)
}

func decodeErrorCode(s *BookingUseCaseTestSuite, body []byte) string {
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

func (s *BookingUseCaseTestSuite) TestBook_Success() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()
	fingerprint := usecase.Fingerprint(req)

	s.expectMiss()
	s.passthroughUoW()
	s.reservationRepo.EXPECT().FindActiveBySlot(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, notFoundErr())

	var created *booking.Reservation
	s.reservationRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ db.DBTX, res *booking.Reservation) error {
			created = res
			return nil
		})

	expectedExpiry := s.clk.Now().Add(responseTTL)
	s.idempotencyRepo.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Any(), key, fingerprint, http.StatusCreated, gomock.Any(), expectedExpiry).
		Return(nil)

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, result.Status)
	s.False(result.Replayed)
	s.Require().NotNil(created)

	var body struct {
		ReservationID string `json:"reservation_id"`
		PatientID     string `json:"patient_id"`
		Slot          string `json:"slot"`
		Status        string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(result.Body, &body))
	s.Equal(created.ID().String(), body.ReservationID)
	s.Equal("patient-42", body.PatientID)
	s.Equal("booked", body.Status)
}

func (s *BookingUseCaseTestSuite) TestBook_ReplaysStoredResponse() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()
	storedBody := []byte(`{"reservation_id":"00000000-0000-0000-0000-000000000001","status":"booked"}`)

	s.idempotencyRepo.EXPECT().Get(gomock.Any(), key).Return(&usecase.IdempotencyRecord{
		Key:                key,
		RequestFingerprint: usecase.Fingerprint(req),
		ResponseStatus:     http.StatusCreated,
		ResponseBody:       storedBody,
	}, nil)

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, result.Status)
	s.True(result.Replayed)
	// Byte-for-byte: the stored bytes come back untouched.
	s.Equal(storedBody, []byte(result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_ReplaysStoredErrorResponse() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()
	storedBody := []byte(`{"error":{"code":"SLOT_TAKEN","message":"the requested slot is already booked"}}`)

	s.idempotencyRepo.EXPECT().Get(gomock.Any(), key).Return(&usecase.IdempotencyRecord{
		Key:                key,
		RequestFingerprint: usecase.Fingerprint(req),
		ResponseStatus:     http.StatusConflict,
		ResponseBody:       storedBody,
	}, nil)

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusConflict, result.Status)
	s.True(result.Replayed)
	s.Equal(storedBody, []byte(result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_KeyReuseWithDifferentParameters() {
	original := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()

	s.idempotencyRepo.EXPECT().Get(gomock.Any(), key).Return(&usecase.IdempotencyRecord{
		Key:                key,
		RequestFingerprint: usecase.Fingerprint(original),
		ResponseStatus:     http.StatusCreated,
		ResponseBody:       []byte(`{}`),
	}, nil)

	// Same key, different slot. The stored answer must neither be replayed
	// nor overwritten, and the mismatch itself is never cached.
	altered := builder.NewBookingBuilder().WithSlot("2026-03-12T13:00:00Z").BuildRequest()
	result, err := s.uc.Book(context.Background(), altered, key)
	s.Require().NoError(err)
	s.Equal(http.StatusUnprocessableEntity, result.Status)
	s.False(result.Replayed)
	s.Equal("IDEMPOTENCY_KEY_MISMATCH", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_ValidationFailuresAreCached() {
	cases := []struct {
		name         string
		mutate       func(*builder.BookingBuilder)
		expectStatus int
		expectCode   string
	}{
		{
			name:         "empty patient id",
			mutate:       func(b *builder.BookingBuilder) { b.WithPatientID("  ") },
			expectStatus: http.StatusBadRequest,
			expectCode:   "INVALID_PATIENT_ID",
		},
		{
			name:         "unparsable slot",
			mutate:       func(b *builder.BookingBuilder) { b.WithSlot("noon tomorrow") },
			expectStatus: http.StatusBadRequest,
			expectCode:   "INVALID_SLOT",
		},
		{
			name:         "slot in the past",
			mutate:       func(b *builder.BookingBuilder) { b.WithSlot("2026-03-09T13:00:00Z") },
			expectStatus: http.StatusBadRequest,
			expectCode:   "SLOT_IN_PAST",
		},
	}

	for _, c := range cases {
		s.Run(c.name, func() {
			req := builder.NewBookingBuilder().With(c.mutate).BuildRequest()
			key := uuid.New()

			s.expectMiss()
			// Deterministic rejections are terminal outcomes: cached outside
			// any transaction.
			s.idempotencyRepo.EXPECT().
				InsertIfAbsent(gomock.Any(), gomock.Nil(), key, usecase.Fingerprint(req), c.expectStatus, gomock.Any(), gomock.Any()).
				Return(nil)

			result, err := s.uc.Book(context.Background(), req, key)
			s.Require().NoError(err)
			s.Equal(c.expectStatus, result.Status)
			s.Equal(c.expectCode, decodeErrorCode(s, result.Body))
		})
	}
}

func (s *BookingUseCaseTestSuite) TestBook_SlotTakenOnPreCheck() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()

	occupant, err := builder.NewBookingBuilder().WithPatientID("someone-else").BuildDomain()
	s.Require().NoError(err)

	s.expectMiss()
	s.passthroughUoW()
	s.reservationRepo.EXPECT().FindActiveBySlot(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(occupant, nil)
	s.idempotencyRepo.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Nil(), key, usecase.Fingerprint(req), http.StatusConflict, gomock.Any(), gomock.Any()).
		Return(nil)

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusConflict, result.Status)
	s.Equal("SLOT_TAKEN", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_SlotTakenOnInsertRace() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()

	s.expectMiss()
	s.passthroughUoW()
	// Pre-check saw a free slot, but a concurrent writer committed first and
	// the unique index rejected the insert.
	s.reservationRepo.EXPECT().FindActiveBySlot(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, notFoundErr())
	s.reservationRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr("insert reservation", nil, infra.KindConflict))
	s.idempotencyRepo.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Nil(), key, usecase.Fingerprint(req), http.StatusConflict, gomock.Any(), gomock.Any()).
		Return(nil)

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusConflict, result.Status)
	s.Equal("SLOT_TAKEN", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_LockTimeoutIsNeverCached() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()

	s.expectMiss()
	s.uow.EXPECT().Within(gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr("lock wait exceeded", nil, infra.KindLockTimeout))
	// No InsertIfAbsent expectation: the undecided outcome must not be
	// recorded, so the same key retries the full protocol.

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusServiceUnavailable, result.Status)
	s.Equal("LOCK_TIMEOUT", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_InternalErrorIsNeverCached() {
	req := builder.NewBookingBuilder().BuildRequest()
	key := uuid.New()

	s.expectMiss()
	s.uow.EXPECT().Within(gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr("connection reset", nil, infra.KindDBFailure))

	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().Error(err)
	s.Equal(http.StatusInternalServerError, result.Status)
	s.Equal("INTERNAL_ERROR", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestBook_RecordFailureDoesNotChangeOutcome() {
	req := builder.NewBookingBuilder().WithSlot("2026-03-09T13:00:00Z").BuildRequest()
	key := uuid.New()

	s.expectMiss()
	s.idempotencyRepo.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Nil(), key, gomock.Any(), http.StatusBadRequest, gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr("write failed", nil, infra.KindDBFailure))

	// Losing the cache write only costs a repeat of the same deterministic
	// work next time; the caller still gets the real answer.
	result, err := s.uc.Book(context.Background(), req, key)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, result.Status)
	s.Equal("SLOT_IN_PAST", decodeErrorCode(s, result.Body))
}

func (s *BookingUseCaseTestSuite) TestGetReservation() {
	s.Run("found", func() {
		res, err := builder.NewBookingBuilder().BuildDomain()
		s.Require().NoError(err)

		s.reservationRepo.EXPECT().FindByID(gomock.Any(), res.ID()).Return(res, nil)

		view, err := s.uc.GetReservation(context.Background(), res.ID())
		s.Require().NoError(err)
		s.Equal(res.ID(), view.ID)
		s.Equal("patient-42", view.PatientID)
	})

	s.Run("not found", func() {
		id := uuid.New()
		s.reservationRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, notFoundErr())

		_, err := s.uc.GetReservation(context.Background(), id)
		s.Require().ErrorIs(err, usecase.ErrReservationNotFound)
	})
}

func (s *BookingUseCaseTestSuite) TestListPatientReservations() {
	s.Run("returns views ordered by repository", func() {
		r1, err := builder.NewBookingBuilder().BuildDomain()
		s.Require().NoError(err)
		r2, err := builder.NewBookingBuilder().WithSlot("2026-03-12T13:00:00Z").BuildDomain()
		s.Require().NoError(err)

		s.reservationRepo.EXPECT().FindByPatient(gomock.Any(), gomock.Any()).
			Return([]*booking.Reservation{r1, r2}, nil)

		views, err := s.uc.ListPatientReservations(context.Background(), "patient-42")
		s.Require().NoError(err)

		expected := []*usecase.ReservationView{
			usecase.NewReservationView(r1),
			usecase.NewReservationView(r2),
		}
		if diff := cmp.Diff(expected, views); diff != "" {
			s.T().Errorf("reservation views mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("rejects empty patient id", func() {
		_, err := s.uc.ListPatientReservations(context.Background(), "  ")
		s.Require().ErrorIs(err, booking.ErrEmptyPatientID)
	})
}

func (s *BookingUseCaseTestSuite) TestCancelReservation() {
	s.Run("booked reservation cancels", func() {
		res, err := builder.NewBookingBuilder().BuildDomain()
		s.Require().NoError(err)

		s.reservationRepo.EXPECT().FindByID(gomock.Any(), res.ID()).Return(res, nil)
		s.reservationRepo.EXPECT().Cancel(gomock.Any(), res.ID(), s.clk.Now()).Return(nil)

		view, err := s.uc.CancelReservation(context.Background(), res.ID())
		s.Require().NoError(err)
		s.Equal("cancelled", view.Status)
	})

	s.Run("already cancelled", func() {
		res, err := builder.NewBookingBuilder().BuildDomain()
		s.Require().NoError(err)
		s.Require().NoError(res.Cancel(s.clk.Now()))

		s.reservationRepo.EXPECT().FindByID(gomock.Any(), res.ID()).Return(res, nil)

		_, err = s.uc.CancelReservation(context.Background(), res.ID())
		s.Require().ErrorIs(err, usecase.ErrAlreadyCancelled)
	})

	s.Run("lost cancel race maps to already cancelled", func() {
		res, err := builder.NewBookingBuilder().BuildDomain()
		s.Require().NoError(err)

		s.reservationRepo.EXPECT().FindByID(gomock.Any(), res.ID()).Return(res, nil)
		s.reservationRepo.EXPECT().Cancel(gomock.Any(), res.ID(), s.clk.Now()).Return(notFoundErr())

		_, err = s.uc.CancelReservation(context.Background(), res.ID())
		s.Require().ErrorIs(err, usecase.ErrAlreadyCancelled)
	})

	s.Run("unknown id", func() {
		id := uuid.New()
		s.reservationRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, notFoundErr())

		_, err := s.uc.CancelReservation(context.Background(), id)
		s.Require().ErrorIs(err, usecase.ErrReservationNotFound)
	})
}
