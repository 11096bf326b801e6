package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/reliability/retry"
)

// PostgresBookingRepository implements domain.BookingRepository using
// PostgreSQL. The availability re-check and the insert run in one
// serializable transaction with the house row locked, so two concurrent
// bookings for overlapping ranges on the same house cannot both commit.
type PostgresBookingRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	retryCfg *retry.Config
}

// NewPostgresBookingRepository creates a new booking repository
func NewPostgresBookingRepository(db *sql.DB, logger *slog.Logger) *PostgresBookingRepository {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := retry.DefaultConfig()
	cfg.RetryIf = isSerializationFailure

	return &PostgresBookingRepository{
		db:       db,
		logger:   logger,
		retryCfg: cfg,
	}
}

// Book atomically re-checks availability and inserts the booking.
// Serialization failures and deadlocks are retried with backoff; every
// other error, including the domain outcomes, is returned to the caller
// on the first attempt.
func (r *PostgresBookingRepository) Book(ctx context.Context, booking *domain.Booking) error {
	_, err := retry.Do(ctx, r.retryCfg, r.logger, "book_stay", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.bookTx(ctx, booking)
	})
	return err
}

func (r *PostgresBookingRepository) bookTx(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the house row for the duration of the check-and-insert.
	// A missing house collapses into the unavailable outcome.
	var capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM houses WHERE id = $1 FOR UPDATE`,
		booking.HouseID,
	).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrHouseUnavailable
	}
	if err != nil {
		return fmt.Errorf("failed to lock house: %w", err)
	}

	var conflict bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE house_id = $1 AND `+overlapClause(2, 3)+`
		)`,
		booking.HouseID, booking.DateFrom, booking.DateTo,
	).Scan(&conflict)
	if err != nil {
		return fmt.Errorf("failed to check availability: %w", err)
	}
	if conflict {
		return domain.ErrHouseUnavailable
	}

	if len(booking.Names) > capacity {
		return domain.ErrCapacityExceeded
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO bookings (house_id, date_from, date_to, names, booked_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		booking.HouseID,
		booking.DateFrom,
		booking.DateTo,
		strings.Join(booking.Names, ","),
		booking.BookedBy,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	r.logger.Info("booking committed",
		slog.Int64("booking_id", booking.ID),
		slog.Int64("house_id", booking.HouseID),
		slog.Time("date_from", booking.DateFrom),
		slog.Time("date_to", booking.DateTo),
	)

	return nil
}

// CountFrom returns the number of bookings whose range ends on or after day
func (r *PostgresBookingRepository) CountFrom(ctx context.Context, day time.Time) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE date_to >= $1`, day).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

// isSerializationFailure reports whether the error is a Postgres
// serialization failure (40001) or deadlock (40P01), both of which are
// safe to retry against a fresh snapshot.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
