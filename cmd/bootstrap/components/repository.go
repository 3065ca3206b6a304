package components

import (
	"clinic-booking/internal/infra/db"
	"clinic-booking/internal/infra/repository"
	"clinic-booking/internal/infra/uow"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		repository.NewReservationRepository,
		repository.NewIdempotencyRepository,
		uow.NewPostgresUoW,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
