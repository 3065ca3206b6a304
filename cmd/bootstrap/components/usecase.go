package components

import (
	"clinic-booking/internal/pkg/clock"
	"clinic-booking/internal/pkg/config"
	"clinic-booking/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewBookingUseCase,
	),
)

func NewBookingUseCase(
	reservationRepo usecase.ReservationRepository,
	idempotencyRepo usecase.IdempotencyRepository,
	unitOfWork usecase.UnitOfWork,
	clk clock.Clock,
	cfg config.Config,
) usecase.BookingUseCase {
	return usecase.NewBookingUseCase(reservationRepo, idempotencyRepo, unitOfWork, clk, cfg.Idempotency.ResponseTTL)
}
