package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/repository"
)

// trackingBookingRepo counts Book calls so tests can assert that invalid
// requests never reach storage.
type trackingBookingRepo struct {
	domain.BookingRepository
	books int
}

func (r *trackingBookingRepo) Book(ctx context.Context, b *domain.Booking) error {
	r.books++
	return r.BookingRepository.Book(ctx, b)
}

func TestBookValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		params BookParams
		want   error
	}{
		{"bad from wins over bad house", BookParams{HouseID: 0, From: "junk", To: "2024-06-05", Names: []string{"A"}}, domain.ErrInvalidDate},
		{"bad to", BookParams{HouseID: 1, From: "2024-06-01", To: "nope", Names: []string{"A"}}, domain.ErrInvalidDate},
		{"reversed range wins over bad house", BookParams{HouseID: 0, From: "2024-06-05", To: "2024-06-01", Names: []string{"A"}}, domain.ErrRangeOrder},
		{"bad house wins over missing names", BookParams{HouseID: 0, From: "2024-06-01", To: "2024-06-05", Names: nil}, domain.ErrInvalidHouseID},
		{"missing names checked last", BookParams{HouseID: 1, From: "2024-06-01", To: "2024-06-05", Names: nil}, domain.ErrNoNames},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &trackingBookingRepo{BookingRepository: repository.NewMemoryStore()}
			s := NewBookingService(repo, nil, nil)

			_, err := s.Book(context.Background(), 1, tc.params)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if repo.books != 0 {
				t.Fatalf("invalid booking reached storage (%d calls)", repo.books)
			}
		})
	}
}

func TestBookRequiresPrincipal(t *testing.T) {
	repo := &trackingBookingRepo{BookingRepository: repository.NewMemoryStore()}
	s := NewBookingService(repo, nil, nil)

	_, err := s.Book(context.Background(), 0, BookParams{HouseID: 1, From: "2024-06-01", To: "2024-06-05", Names: []string{"A"}})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
	if repo.books != 0 {
		t.Fatalf("unauthenticated booking reached storage")
	}
}

func TestBookSuccess(t *testing.T) {
	store := repository.NewMemoryStore()
	seedHouses(t, store, 1, 4)
	s := NewBookingService(store, nil, nil)

	booking, err := s.Book(context.Background(), 7, BookParams{
		HouseID: 1,
		From:    "2024-06-01",
		To:      "2024-06-05",
		Names:   []string{"Alice", "Bob"},
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if booking.ID == 0 {
		t.Fatalf("expected a booking id")
	}
	if booking.BookedBy != 7 {
		t.Fatalf("booking principal = %d, want 7", booking.BookedBy)
	}
}

func TestBookUnknownHouseAndConflictCollapse(t *testing.T) {
	store := repository.NewMemoryStore()
	seedHouses(t, store, 1, 4)
	s := NewBookingService(store, nil, nil)
	ctx := context.Background()

	params := BookParams{HouseID: 1, From: "2024-06-01", To: "2024-06-05", Names: []string{"A"}}
	if _, err := s.Book(ctx, 1, params); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// A second attempt on the same range and an attempt on a house that
	// does not exist report the same error.
	if _, err := s.Book(ctx, 2, params); !errors.Is(err, domain.ErrHouseUnavailable) {
		t.Fatalf("conflicting booking: got %v, want ErrHouseUnavailable", err)
	}
	params.HouseID = 99
	if _, err := s.Book(ctx, 2, params); !errors.Is(err, domain.ErrHouseUnavailable) {
		t.Fatalf("unknown house: got %v, want ErrHouseUnavailable", err)
	}
}

func TestBookCapacityExceededLeavesNoBooking(t *testing.T) {
	store := repository.NewMemoryStore()
	seedHouses(t, store, 1, 4)
	ctx := context.Background()

	booking := NewBookingService(store, nil, nil)
	search := NewSearchService(store, nil, 0, nil)

	_, err := booking.Book(ctx, 1, BookParams{
		HouseID: 1,
		From:    "2024-06-01",
		To:      "2024-06-05",
		Names:   []string{"A", "B", "C", "D", "E"},
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}

	// The failed attempt must not have held the range.
	res, err := search.Search(ctx, SearchParams{From: "2024-06-01", To: "2024-06-05", People: 1, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(res.Houses) != 1 {
		t.Fatalf("house unavailable after a rejected booking")
	}
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	store := repository.NewMemoryStore()
	seedHouses(t, store, 1, 4)
	s := NewBookingService(store, nil, nil)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := s.Book(context.Background(), userID, BookParams{
				HouseID: 1,
				From:    "2024-06-01",
				To:      "2024-06-05",
				Names:   []string{"A"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrHouseUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("got %d conflicts, want %d", conflicts, attempts-1)
	}
}

func TestBookInvalidatesSearchCache(t *testing.T) {
	store := repository.NewMemoryStore()
	seedHouses(t, store, 1, 4)
	ctx := context.Background()

	cache := NewLocalSearchCache()
	search := NewSearchService(store, cache, time.Minute, nil)
	booking := NewBookingService(store, cache, nil)

	params := SearchParams{From: "2024-06-01", To: "2024-06-05", People: 1, Page: 1, Limit: 10}
	before, err := search.Search(ctx, params)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(before.Houses) != 1 {
		t.Fatalf("expected the house before booking")
	}

	if _, err := booking.Book(ctx, 1, BookParams{HouseID: 1, From: "2024-06-01", To: "2024-06-05", Names: []string{"A"}}); err != nil {
		t.Fatalf("book failed: %v", err)
	}

	// The cached page was dropped; the repeat search reflects the booking.
	after, err := search.Search(ctx, params)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(after.Houses) != 0 {
		t.Fatalf("stale cached page served after a booking")
	}
}
