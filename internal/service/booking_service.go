package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/metrics"
)

// BookParams are the raw inputs of a booking attempt
type BookParams struct {
	HouseID int64
	From    string
	To      string
	Names   []string
}

// BookingService commits reservations. The availability re-check and the
// insert are delegated to the repository as one atomic unit; this layer
// owns input validation and cache invalidation.
type BookingService struct {
	bookingRepo domain.BookingRepository
	cache       SearchCache // nil when caching is disabled
	logger      *slog.Logger
}

// NewBookingService creates a booking service
func NewBookingService(bookingRepo domain.BookingRepository, cache SearchCache, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}

	return &BookingService{
		bookingRepo: bookingRepo,
		cache:       cache,
		logger:      logger,
	}
}

// Book validates the request and commits the reservation for the given
// principal. Validation order is fixed: dates parse, range order, house
// id, names. A missing house and a date conflict both come back as
// ErrHouseUnavailable.
func (s *BookingService) Book(ctx context.Context, userID int64, p BookParams) (*domain.Booking, error) {
	if userID < 1 {
		return nil, domain.ErrUnauthenticated
	}

	r, err := domain.ParseDateRange(p.From, p.To)
	if err != nil {
		return nil, err
	}
	if p.HouseID < 1 {
		return nil, domain.ErrInvalidHouseID
	}
	if len(p.Names) == 0 {
		return nil, domain.ErrNoNames
	}

	booking := &domain.Booking{
		HouseID:  p.HouseID,
		DateFrom: r.From,
		DateTo:   r.To,
		Names:    p.Names,
		BookedBy: userID,
	}

	start := time.Now()
	err = s.bookingRepo.Book(ctx, booking)
	switch {
	case errors.Is(err, domain.ErrHouseUnavailable):
		metrics.ObserveBooking("unavailable", time.Since(start))
		return nil, err
	case errors.Is(err, domain.ErrCapacityExceeded):
		metrics.ObserveBooking("capacity_exceeded", time.Since(start))
		return nil, err
	case err != nil:
		metrics.ObserveBooking("error", time.Since(start))
		return nil, fmt.Errorf("booking failed: %w", err)
	}
	metrics.ObserveBooking("ok", time.Since(start))

	// Cached search pages predate this booking; drop them all.
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}

	s.logger.Info("stay booked",
		slog.Int64("booking_id", booking.ID),
		slog.Int64("house_id", booking.HouseID),
		slog.Int64("user_id", userID),
		slog.Int("occupants", len(booking.Names)),
	)

	return booking, nil
}
