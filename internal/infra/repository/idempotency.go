package repository

import (
	"context"
	"time"

	"clinic-booking/internal/infra"
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/usecase"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) usecase.IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID) (*usecase.IdempotencyRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT key, request_fingerprint, response_status, response_body, created_at, expires_at
		 FROM idempotency_records
		 WHERE key = $1`,
		key,
	)

	var rec usecase.IdempotencyRecord
	err := row.Scan(&rec.Key, &rec.RequestFingerprint, &rec.ResponseStatus, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if infra.ClassifyError(err) == infra.KindNotFound {
			return nil, infra.WrapRepoErr("idempotency record not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency record", err)
	}

	// Expired records are invisible; the sweeper removes them later.
	if time.Now().After(rec.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency record expired", nil, infra.KindNotFound)
	}

	return &rec, nil
}

func (r *IdempotencyRepository) InsertIfAbsent(ctx context.Context, tx db.DBTX, key uuid.UUID, fingerprint string, status int, body []byte, expiresAt time.Time) error {
	dbtx := r.db
	if tx != nil {
		dbtx = tx
	}

	// ON CONFLICT DO NOTHING keeps the first stored result authoritative:
	// concurrent duplicate inserts are silently dropped, never overwritten.
	_, err := dbtx.Exec(ctx,
		`INSERT INTO idempotency_records (key, request_fingerprint, response_status, response_body, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO NOTHING`,
		key, fingerprint, status, body, expiresAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert idempotency record", err)
	}

	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM idempotency_records WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency records", err)
	}

	return tag.RowsAffected(), nil
}
