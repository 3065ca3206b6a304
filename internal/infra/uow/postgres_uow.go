package uow

import (
	"context"
	"errors"
	"log/slog"

	"clinic-booking/internal/infra"
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/usecase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUoW runs the check-then-insert reservation decision as one
// transaction. It deliberately does not retry: a transient failure surfaces
// as a LOCK_TIMEOUT result and the retry belongs to the caller, keyed by the
// same idempotency key.
type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) usecase.UnitOfWork {
	return &PostgresUoW{pool: pool}
}

// ReadCommitted is sufficient: the partial unique index on booked slots is
// the authoritative race guard, not snapshot isolation.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}

	defer func() {
		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "error", rollbackErr.Error())
			}
		}
	}()

	if err := fn(ctx, pgxTx); err != nil {
		return err
	}

	// A unique violation can first surface here when a second writer won
	// the race after our pre-check; classification turns it into a conflict.
	if err := pgxTx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}

	return nil
}
