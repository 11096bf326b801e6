package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/service"
)

const defaultPageLimit = 10

// QueryHousesRequest is the typed request schema for availability
// queries. Pointer fields distinguish absent from zero so an explicit
// page=0 is rejected instead of silently defaulted.
type QueryHousesRequest struct {
	From   *string `json:"from"`
	To     *string `json:"to"`
	People *int    `json:"people"`
	Page   *int    `json:"page"`
	Limit  *int    `json:"limit"`
}

// SearchHandler handles POST /api/v1/query_houses
type SearchHandler struct {
	searchService *service.SearchService
	logger        *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// ServeHTTP validates the request shape and delegates to the search
// service. No authentication is required.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryHousesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode search request", slog.String("error", err.Error()))
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.From == nil {
		writeMessage(w, http.StatusBadRequest, "From date is required")
		return
	}
	if req.To == nil {
		writeMessage(w, http.StatusBadRequest, "To date is required")
		return
	}
	if req.People == nil {
		writeMessage(w, http.StatusBadRequest, "Number of people is required")
		return
	}

	params := service.SearchParams{
		From:   *req.From,
		To:     *req.To,
		People: *req.People,
		Page:   1,
		Limit:  defaultPageLimit,
	}
	if req.Page != nil {
		params.Page = *req.Page
	}
	if req.Limit != nil {
		params.Limit = *req.Limit
	}

	result, err := h.searchService.Search(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeError maps search failures to the endpoint's wire messages
func (h *SearchHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, "Invalid date format.")
	case errors.Is(err, domain.ErrInvalidPeople):
		writeMessage(w, http.StatusBadRequest, "Invalid number of people.")
	case errors.Is(err, domain.ErrInvalidPage):
		writeMessage(w, http.StatusBadRequest, "Invalid page number.")
	case errors.Is(err, domain.ErrInvalidLimit):
		writeMessage(w, http.StatusBadRequest, "Invalid limit.")
	case errors.Is(err, domain.ErrRangeOrder):
		writeMessage(w, http.StatusBadRequest, "From date should be before to date.")
	default:
		h.logger.Error("search failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
