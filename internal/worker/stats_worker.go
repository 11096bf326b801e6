package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/metrics"
)

// StatsWorker periodically refreshes the house-count and upcoming-bookings
// gauges from storage so the metrics survive restarts and drift.
type StatsWorker struct {
	houseRepo   domain.HouseRepository
	bookingRepo domain.BookingRepository
	logger      *slog.Logger
	interval    time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(
	houseRepo domain.HouseRepository,
	bookingRepo domain.BookingRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	return &StatsWorker{
		houseRepo:   houseRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
		interval:    interval,
	}
}

// Start runs the refresh loop until the context is canceled. The first
// refresh happens immediately so gauges are populated on boot.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	houses, err := w.houseRepo.Count(ctx)
	if err != nil {
		w.logger.Error("failed to count houses", slog.String("error", err.Error()))
	} else {
		metrics.SetHouses(houses)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	upcoming, err := w.bookingRepo.CountFrom(ctx, today)
	if err != nil {
		w.logger.Error("failed to count upcoming bookings", slog.String("error", err.Error()))
		return
	}
	metrics.SetUpcomingBookings(upcoming)
}
