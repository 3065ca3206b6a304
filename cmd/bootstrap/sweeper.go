package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"clinic-booking/internal/pkg/config"
	"clinic-booking/internal/usecase"

	"go.uber.org/fx"
)

var SweeperModule = fx.Module("sweeper",
	fx.Invoke(StartIdempotencySweeper),
)

// StartIdempotencySweeper garbage-collects expired idempotency records in
// the background. Expiry never affects correctness of a live replay; this
// only bounds table growth.
func StartIdempotencySweeper(lc fx.Lifecycle, cfg config.Config, repo usecase.IdempotencyRepository) {
	interval := cfg.Idempotency.SweepInterval
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						deleted, err := repo.DeleteExpired(ctx, time.Now())
						if err != nil {
							slog.Warn("idempotency sweep failed", "error", err.Error())
							continue
						}
						if deleted > 0 {
							slog.Info("idempotency sweep completed", "deleted", deleted)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
