package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/metrics"
)

// SearchParams are the raw inputs of an availability query. Dates stay
// strings until validated; Page and Limit arrive already defaulted by the
// handler (1 and 10 when absent).
type SearchParams struct {
	From   string
	To     string
	People int
	Page   int
	Limit  int
}

// HouseResult is one house in a search response
type HouseResult struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amenities   string `json:"amenities"`
	City        string `json:"city"`
	Capacity    int    `json:"capacity"`
}

// SearchResult is a single page of available houses
type SearchResult struct {
	Houses       []HouseResult `json:"houses"`
	TotalResults int           `json:"total_results"`
	CurrentPage  int           `json:"current_page"`
	TotalPages   int           `json:"total_pages"`
}

// SearchService answers availability queries. It is read-only: results
// are a snapshot and may be stale by the time a booking follows them.
type SearchService struct {
	houseRepo domain.HouseRepository
	cache     SearchCache // nil disables caching
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewSearchService creates a search service. Passing a nil cache disables
// the read-through cache entirely.
func NewSearchService(houseRepo domain.HouseRepository, cache SearchCache, cacheTTL time.Duration, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		houseRepo: houseRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Search validates the query and returns the requested page of houses
// that hold the party and have no conflicting booking. Validation order
// is fixed: dates parse, people, page, limit, then range order — the
// first failure wins and nothing touches storage.
func (s *SearchService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	from, err := domain.ParseDate(p.From)
	if err != nil {
		metrics.ObserveSearch("invalid")
		return nil, err
	}
	to, err := domain.ParseDate(p.To)
	if err != nil {
		metrics.ObserveSearch("invalid")
		return nil, err
	}
	if p.People < 1 {
		metrics.ObserveSearch("invalid")
		return nil, domain.ErrInvalidPeople
	}
	if p.Page < 1 {
		metrics.ObserveSearch("invalid")
		return nil, domain.ErrInvalidPage
	}
	if p.Limit < 1 {
		metrics.ObserveSearch("invalid")
		return nil, domain.ErrInvalidLimit
	}
	if from.After(to) {
		metrics.ObserveSearch("invalid")
		return nil, domain.ErrRangeOrder
	}

	key := fmt.Sprintf("%s%s:%s:%d:%d:%d", searchKeyPrefix, p.From, p.To, p.People, p.Page, p.Limit)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached SearchResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				observeLookup(true)
				metrics.ObserveSearch("ok")
				return &cached, nil
			}
			s.logger.Warn("dropping undecodable cache entry", slog.String("key", key))
		}
		observeLookup(false)
	}

	query := domain.HouseSearch{
		Range:  domain.DateRange{From: from, To: to},
		People: p.People,
		Limit:  p.Limit,
		Offset: (p.Page - 1) * p.Limit,
	}

	houses, total, err := s.houseRepo.SearchAvailable(ctx, query)
	if err != nil {
		metrics.ObserveSearch("error")
		return nil, fmt.Errorf("availability search failed: %w", err)
	}

	result := &SearchResult{
		Houses:       make([]HouseResult, 0, len(houses)),
		TotalResults: total,
		CurrentPage:  p.Page,
		TotalPages:   totalPages(total, p.Limit),
	}
	for _, h := range houses {
		result.Houses = append(result.Houses, HouseResult{
			ID:          h.ID,
			Description: h.Description,
			Amenities:   h.Amenities,
			City:        h.City,
			Capacity:    h.Capacity,
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}

	metrics.ObserveSearch("ok")
	return result, nil
}

// totalPages is ceil(total/limit) with a floor of one page, so an empty
// result set still reports page 1 of 1.
func totalPages(total, limit int) int {
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}
