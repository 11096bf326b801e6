package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/security/middleware"
	"github.com/omerdikyol/api-for-travel-company/internal/service"
)

// BookStayRequest is the typed request schema for bookings
type BookStayRequest struct {
	HouseID *int64    `json:"house_id"`
	From    *string   `json:"from"`
	To      *string   `json:"to"`
	Names   *[]string `json:"names"`
}

// BookingHandler handles POST /api/v1/book_stay
type BookingHandler struct {
	bookingService *service.BookingService
	logger         *slog.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *service.BookingService, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// ServeHTTP requires a valid principal (injected by the JWT middleware),
// validates the request shape and delegates to the booking service.
func (h *BookingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "Missing Authorization Header")
		return
	}

	var req BookStayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode booking request", slog.String("error", err.Error()))
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseID == nil {
		writeMessage(w, http.StatusBadRequest, "House ID is required")
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
	if req.Names == nil {
		writeMessage(w, http.StatusBadRequest, "Names are required")
		return
	}

	params := service.BookParams{
		HouseID: *req.HouseID,
		From:    *req.From,
		To:      *req.To,
		Names:   *req.Names,
	}

	if _, err := h.bookingService.Book(r.Context(), claims.UserID, params); err != nil {
		h.writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Booking successful")
}

// writeError maps booking failures to the endpoint's wire messages. The
// unavailable outcome is a 404 that covers both missing houses and date
// conflicts.
func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Missing Authorization Header")
	case errors.Is(err, domain.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, "Invalid date format")
	case errors.Is(err, domain.ErrRangeOrder):
		writeMessage(w, http.StatusBadRequest, "From date should be before to date.")
	case errors.Is(err, domain.ErrInvalidHouseID):
		writeMessage(w, http.StatusBadRequest, "Invalid house id.")
	case errors.Is(err, domain.ErrNoNames):
		writeMessage(w, http.StatusBadRequest, "User should enter names.")
	case errors.Is(err, domain.ErrHouseUnavailable):
		writeMessage(w, http.StatusNotFound, "House is not available for booking")
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeMessage(w, http.StatusBadRequest, "House capacity is not enough for booking")
	default:
		h.logger.Error("booking failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
