package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
)

// MemoryStore is an in-process implementation of the house, booking and
// user repositories. It backs the memory storage driver (STORAGE_DRIVER=
// memory) and the test suites. Without a transactional store the booking
// check-and-insert is serialized by a per-house mutex held across the
// whole window.
type MemoryStore struct {
	mu       sync.RWMutex
	houses   map[int64]*domain.House
	bookings map[int64]*domain.Booking
	users    map[int64]*domain.User
	byName   map[string]int64

	houseLocksMu sync.Mutex
	houseLocks   map[int64]*sync.Mutex

	nextHouseID   int64
	nextBookingID int64
	nextUserID    int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		houses:     map[int64]*domain.House{},
		bookings:   map[int64]*domain.Booking{},
		users:      map[int64]*domain.User{},
		byName:     map[string]int64{},
		houseLocks: map[int64]*sync.Mutex{},
	}
}

func (s *MemoryStore) houseLock(houseID int64) *sync.Mutex {
	s.houseLocksMu.Lock()
	defer s.houseLocksMu.Unlock()
	l, ok := s.houseLocks[houseID]
	if !ok {
		l = &sync.Mutex{}
		s.houseLocks[houseID] = l
	}
	return l
}

// SearchAvailable implements domain.HouseRepository
func (s *MemoryStore) SearchAvailable(_ context.Context, q domain.HouseSearch) ([]*domain.House, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*domain.House
	for _, h := range s.houses {
		if h.Capacity < q.People {
			continue
		}
		if s.hasOverlapLocked(h.ID, q.Range) {
			continue
		}
		matches = append(matches, h)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	total := len(matches)
	if q.Offset >= total {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}

	page := make([]*domain.House, end-q.Offset)
	for i, h := range matches[q.Offset:end] {
		cp := *h
		page[i] = &cp
	}
	return page, total, nil
}

// hasOverlapLocked assumes s.mu is held at least for reading
func (s *MemoryStore) hasOverlapLocked(houseID int64, r domain.DateRange) bool {
	for _, b := range s.bookings {
		if b.HouseID == houseID && b.Range().Overlaps(r) {
			return true
		}
	}
	return false
}

// Create implements domain.HouseRepository
func (s *MemoryStore) Create(_ context.Context, house *domain.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHouseID++
	house.ID = s.nextHouseID
	house.CreatedAt = time.Now()
	cp := *house
	s.houses[house.ID] = &cp
	return nil
}

// Count implements domain.HouseRepository
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.houses), nil
}

// Book implements domain.BookingRepository. The house lock spans the
// availability check and the insert, so a losing concurrent caller
// re-derives the conflict after the winner commits.
func (s *MemoryStore) Book(_ context.Context, booking *domain.Booking) error {
	lock := s.houseLock(booking.HouseID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	house, ok := s.houses[booking.HouseID]
	if !ok {
		return domain.ErrHouseUnavailable
	}
	if s.hasOverlapLocked(booking.HouseID, booking.Range()) {
		return domain.ErrHouseUnavailable
	}
	if len(booking.Names) > house.Capacity {
		return domain.ErrCapacityExceeded
	}

	s.nextBookingID++
	booking.ID = s.nextBookingID
	cp := *booking
	cp.Names = append([]string(nil), booking.Names...)
	s.bookings[booking.ID] = &cp
	return nil
}

// CountFrom implements domain.BookingRepository
func (s *MemoryStore) CountFrom(_ context.Context, day time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, b := range s.bookings {
		if !b.DateTo.Before(day) {
			n++
		}
	}
	return n, nil
}

// CreateUser implements domain.UserRepository (method name Create is taken
// by the house side, so the user repository is exposed through Users()).
type memoryUserRepo struct {
	store *MemoryStore
}

// Users returns the store's domain.UserRepository view
func (s *MemoryStore) Users() domain.UserRepository {
	return &memoryUserRepo{store: s}
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[user.Username]; exists {
		return domain.ErrUserExists
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	s.byName[user.Username] = user.ID
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}
