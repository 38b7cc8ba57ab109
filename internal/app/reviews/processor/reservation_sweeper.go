package processor

import (
	"context"
	"time"

	"rowanberries/internal/app/reviews/repository"
	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// ReservationSweeper периодически удаляет provisional резервации username,
// пережившие свой TTL. Страховка на случай, когда компенсация при сбое
// регистрации не сработала (например, процесс умер между Reserve и Release).
type ReservationSweeper struct {
	cron         *cron.Cron
	reservations repository.ReservationRepository
	ttl          time.Duration
}

func NewReservationSweeper(reservations repository.ReservationRepository, ttl time.Duration) *ReservationSweeper {
	return &ReservationSweeper{
		cron:         cron.New(),
		reservations: reservations,
		ttl:          ttl,
	}
}

func (s *ReservationSweeper) Start(ctx context.Context, schedule string) error {
	logger.Info().
		Str("schedule", schedule).
		Dur("ttl", s.ttl).
		Msg("Starting reservation sweeper")

	_, err := s.cron.AddFunc(schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// RunOnce выполняет один проход очистки
func (s *ReservationSweeper) RunOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)

	deleted, err := s.reservations.DeleteStaleProvisional(ctx, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sweep stale username reservations")
		return
	}

	if deleted > 0 {
		metrics.ReservationsSwept.Add(float64(deleted))
		logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Swept stale username reservations")
	}
}

func (s *ReservationSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Reservation sweeper stopped")
}
