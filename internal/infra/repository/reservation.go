package repository

import (
	"context"
	"time"

	"clinic-booking/internal/domain/booking"
	"clinic-booking/internal/infra"
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/usecase"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) usecase.ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

type reservationRow struct {
	ID        uuid.UUID
	PatientID string
	Slot      time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const reservationColumns = `id, patient_id, slot, status, created_at, updated_at`

func (r *ReservationRepository) FindActiveBySlot(ctx context.Context, tx db.DBTX, slot booking.Slot) (*booking.Reservation, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE slot = $1 AND status = $2`,
		slot.Time(), string(booking.StatusBooked),
	)

	res, err := scanReservation(row)
	if err != nil {
		if infra.ClassifyError(err) == infra.KindNotFound {
			return nil, infra.WrapRepoErr("no active reservation for slot", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to query active reservation", err)
	}

	return res, nil
}

func (r *ReservationRepository) Create(ctx context.Context, tx db.DBTX, res *booking.Reservation) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO reservations (id, patient_id, slot, status)
		 VALUES ($1, $2, $3, $4)`,
		res.ID(), res.PatientID().String(), res.Slot().Time(), string(res.Status()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}

	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE id = $1`,
		id,
	)

	res, err := scanReservation(row)
	if err != nil {
		if infra.ClassifyError(err) == infra.KindNotFound {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to query reservation", err)
	}

	return res, nil
}

func (r *ReservationRepository) FindByPatient(ctx context.Context, patientID booking.PatientID) ([]*booking.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE patient_id = $1
		 ORDER BY slot`,
		patientID.String(),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query patient reservations", err)
	}
	defer rows.Close()

	var reservations []*booking.Reservation
	for rows.Next() {
		res, scanErr := scanReservation(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation row", scanErr)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation rows", err)
	}

	return reservations, nil
}

func (r *ReservationRepository) Cancel(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations
		 SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4`,
		string(booking.StatusCancelled), now, id, string(booking.StatusBooked),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to cancel reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("no active reservation to cancel", nil, infra.KindNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*booking.Reservation, error) {
	var raw reservationRow
	if err := row.Scan(&raw.ID, &raw.PatientID, &raw.Slot, &raw.Status, &raw.CreatedAt, &raw.UpdatedAt); err != nil {
		return nil, err
	}

	patientID, err := booking.NewPatientID(raw.PatientID)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructReservation(
		raw.ID,
		patientID,
		booking.SlotFromTime(raw.Slot),
		booking.Status(raw.Status),
		raw.CreatedAt,
		raw.UpdatedAt,
	), nil
}
