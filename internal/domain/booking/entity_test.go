//go:build unit

package booking_test

import (
	"testing"
	"time"

	"clinic-booking/internal/domain/booking"
	"clinic-booking/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.BookingBuilder)
	errIs  error
}

func TestReservation(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, "patient-42", actual.PatientID().String())
		assert.Equal(t, booking.StatusBooked, actual.Status())
		assert.True(t, actual.IsActive())
	})

	t.Run("patient id validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "empty patient id",
				mutate: func(b *builder.BookingBuilder) { b.WithPatientID("") },
				errIs:  booking.ErrEmptyPatientID,
			},
			{
				name:   "whitespace only patient id",
				mutate: func(b *builder.BookingBuilder) { b.WithPatientID("   ") },
				errIs:  booking.ErrEmptyPatientID,
			},
			{
				name:   "single character patient id",
				mutate: func(b *builder.BookingBuilder) { b.WithPatientID("p") },
			},
		})
	})

	t.Run("patient id trimming", func(t *testing.T) {
		pid, err := booking.NewPatientID("  patient-7  ")
		require.NoError(t, err)
		assert.Equal(t, "patient-7", pid.String())
	})

	t.Run("slot validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "unparsable slot",
				mutate: func(b *builder.BookingBuilder) { b.WithSlot("tomorrow at noon") },
				errIs:  booking.ErrUnparsableSlot,
			},
			{
				name:   "date without time",
				mutate: func(b *builder.BookingBuilder) { b.WithSlot("2026-03-11") },
				errIs:  booking.ErrUnparsableSlot,
			},
			{
				name:   "slot in the past",
				mutate: func(b *builder.BookingBuilder) { b.WithSlot("2026-03-09T10:00:00Z") },
				errIs:  booking.ErrSlotInPast,
			},
			{
				name:   "slot with offset",
				mutate: func(b *builder.BookingBuilder) { b.WithSlot("2026-03-11T15:00:00+02:00") },
			},
		})
	})

	t.Run("UUID uniqueness", func(t *testing.T) {
		r1, err1 := builder.NewBookingBuilder().BuildDomain()
		r2, err2 := builder.NewBookingBuilder().BuildDomain()

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, r1.ID(), r2.ID())
	})
}

func TestSlotNormalization(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("offset and UTC spellings are the same slot", func(t *testing.T) {
		offset, err := booking.NewSlot("2026-03-11T15:00:00+02:00", now)
		require.NoError(t, err)
		utc, err := booking.NewSlot("2026-03-11T13:00:00Z", now)
		require.NoError(t, err)

		assert.True(t, offset.Equal(utc))
		assert.Equal(t, offset.String(), utc.String())
	})

	t.Run("string form is normalized UTC", func(t *testing.T) {
		slot, err := booking.NewSlot("2026-03-11T15:00:00+02:00", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11T13:00:00Z", slot.String())
	})

	t.Run("past check uses the instant, not the wall clock spelling", func(t *testing.T) {
		// 08:59 UTC expressed as 10:59+02:00 is one minute before now.
		_, err := booking.NewSlot("2026-03-10T10:59:00+02:00", now)
		require.ErrorIs(t, err, booking.ErrSlotInPast)
	})

	t.Run("slot equal to now is accepted", func(t *testing.T) {
		slot, err := booking.NewSlot(now.Format(time.RFC3339), now)
		require.NoError(t, err)
		assert.True(t, slot.Time().Equal(now))
	})
}

func TestCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("booked reservation cancels", func(t *testing.T) {
		res, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)

		require.NoError(t, res.Cancel(now))
		assert.Equal(t, booking.StatusCancelled, res.Status())
		assert.False(t, res.IsActive())
		assert.Equal(t, now, res.UpdatedAt())
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		res, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)

		require.NoError(t, res.Cancel(now))
		err = res.Cancel(now.Add(time.Minute))
		require.ErrorIs(t, err, booking.ErrAlreadyCanceled)
	})

	t.Run("reconstructed cancelled reservation stays cancelled", func(t *testing.T) {
		pid, err := booking.NewPatientID("patient-1")
		require.NoError(t, err)

		res := booking.ReconstructReservation(
			uuid.New(), pid, booking.SlotFromTime(now.Add(time.Hour)),
			booking.StatusCancelled, now, now,
		)
		require.ErrorIs(t, res.Cancel(now.Add(time.Minute)), booking.ErrAlreadyCanceled)
	})
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewBookingBuilder().With(c.mutate).BuildDomain()

			if c.errIs == nil {
				require.NotNil(t, actual)
				require.NoError(t, err)
			} else {
				require.Nil(t, actual)
				require.Error(t, err)
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}
