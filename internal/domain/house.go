package domain

import (
	"context"
	"time"
)

// DateLayout is the wire format for calendar dates. Dates carry no time
// component; they are parsed into UTC midnight and compared as whole days.
const DateLayout = "2006-01-02"

// House represents a bookable property
type House struct {
	ID          int64
	Name        string
	Description string
	Amenities   string
	City        string
	Capacity    int
	CreatedAt   time.Time
}

// Booking represents a committed, immutable date-range hold on a house
type Booking struct {
	ID       int64
	HouseID  int64
	DateFrom time.Time
	DateTo   time.Time
	Names    []string // ordered occupant names, never empty
	BookedBy int64    // user id of the booking principal
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDate parses a single wire-format date, returning ErrInvalidDate
// on malformed input.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseDateRange parses two wire-format dates into a range.
// Returns ErrInvalidDate on malformed input and ErrRangeOrder when
// from sorts after to.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	if f.After(t) {
		return DateRange{}, ErrRangeOrder
	}
	return DateRange{From: f, To: t}, nil
}

// Overlaps reports whether two inclusive ranges share at least one day:
// a.From <= b.To && b.From <= a.To. Both the query and booking paths must
// go through this predicate (or its SQL equivalent) so availability reads
// and writes cannot diverge.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.From.After(other.To) && !other.From.After(r.To)
}

// Range returns the booking's held date range
func (b *Booking) Range() DateRange {
	return DateRange{From: b.DateFrom, To: b.DateTo}
}

// HouseSearch holds the resolved parameters of an availability query
type HouseSearch struct {
	Range  DateRange
	People int
	Limit  int
	Offset int
}

// HouseRepository defines read access to houses
type HouseRepository interface {
	// SearchAvailable returns houses with capacity >= People and no
	// booking overlapping Range, ordered by id ascending, windowed by
	// Limit/Offset. The second value is the total match count ignoring
	// the window.
	SearchAvailable(ctx context.Context, q HouseSearch) ([]*House, int, error)
	Create(ctx context.Context, house *House) error
	Count(ctx context.Context) (int, error)
}

// BookingRepository defines write access to bookings.
type BookingRepository interface {
	// Book atomically re-checks availability and inserts the booking.
	// Between the availability read and the insert no other caller may
	// commit a conflicting booking for the same house. Returns
	// ErrHouseUnavailable when the house is missing or the range
	// conflicts, ErrCapacityExceeded when len(Names) exceeds the house
	// capacity. On success the booking's ID is populated.
	Book(ctx context.Context, booking *Booking) error

	// CountFrom returns the number of bookings whose range ends on or
	// after the given day.
	CountFrom(ctx context.Context, day time.Time) (int, error)
}
