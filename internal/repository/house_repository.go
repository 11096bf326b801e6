package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
)

// overlapClause matches bookings whose inclusive date range shares at
// least one day with the candidate range [$fromParam, $toParam]. This is
// the SQL form of domain.DateRange.Overlaps; both the search and booking
// queries are built from it so the read and write paths apply one
// predicate.
func overlapClause(fromParam, toParam int) string {
	return fmt.Sprintf("date_from <= $%d AND date_to >= $%d", toParam, fromParam)
}

// PostgresHouseRepository implements domain.HouseRepository using PostgreSQL
type PostgresHouseRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresHouseRepository creates a new house repository
func NewPostgresHouseRepository(db *sql.DB, logger *slog.Logger) *PostgresHouseRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresHouseRepository{
		db:     db,
		logger: logger,
	}
}

// SearchAvailable returns houses that hold at least q.People and have no
// booking overlapping q.Range, ordered by id, windowed by q.Limit/q.Offset.
// The total match count is computed over the full selection, not the page.
func (r *PostgresHouseRepository) SearchAvailable(ctx context.Context, q domain.HouseSearch) ([]*domain.House, int, error) {
	where := `
		WHERE h.capacity >= $1
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.house_id = h.id AND b.` + overlapClause(2, 3) + `
		  )`

	var total int
	countQuery := `SELECT COUNT(*) FROM houses h` + where
	if err := r.db.QueryRowContext(ctx, countQuery, q.People, q.Range.From, q.Range.To).Scan(&total); err != nil {
		r.logger.Error("failed to count available houses", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count available houses: %w", err)
	}

	pageQuery := `
		SELECT h.id, h.name, h.description, h.amenities, h.city, h.capacity, h.created_at
		FROM houses h` + where + `
		ORDER BY h.id
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, pageQuery, q.People, q.Range.From, q.Range.To, q.Limit, q.Offset)
	if err != nil {
		r.logger.Error("failed to search houses", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to search houses: %w", err)
	}
	defer rows.Close()

	var houses []*domain.House
	for rows.Next() {
		house := &domain.House{}
		err := rows.Scan(
			&house.ID,
			&house.Name,
			&house.Description,
			&house.Amenities,
			&house.City,
			&house.Capacity,
			&house.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan house: %w", err)
		}
		houses = append(houses, house)
	}

	return houses, total, rows.Err()
}

// Create inserts a new house
func (r *PostgresHouseRepository) Create(ctx context.Context, house *domain.House) error {
	query := `
		INSERT INTO houses (name, description, amenities, city, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		house.Name,
		house.Description,
		house.Amenities,
		house.City,
		house.Capacity,
	).Scan(&house.ID, &house.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create house",
			slog.String("name", house.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create house: %w", err)
	}

	return nil
}

// Count returns the number of houses
func (r *PostgresHouseRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM houses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count houses: %w", err)
	}
	return n, nil
}
