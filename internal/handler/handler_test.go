package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/repository"
	"github.com/omerdikyol/api-for-travel-company/internal/security/auth"
	"github.com/omerdikyol/api-for-travel-company/internal/security/middleware"
	"github.com/omerdikyol/api-for-travel-company/internal/service"
)

type testAPI struct {
	store  *repository.MemoryStore
	tokens *auth.TokenManager
	server http.Handler
}

// newTestAPI wires the full handler stack over the in-memory store, with
// the JWT middleware guarding the booking endpoint exactly as in main.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", "travel-api", 15*time.Minute)

	searchService := service.NewSearchService(store, nil, 0, nil)
	bookingService := service.NewBookingService(store, nil, nil)
	authService := service.NewAuthService(store.Users(), tokens, nil)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/query_houses", NewSearchHandler(searchService, nil))
	mux.Handle("POST /api/v1/book_stay", NewBookingHandler(bookingService, nil))
	authHandler := NewAuthHandler(authService, nil)
	mux.HandleFunc("POST /api/v1/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/login", authHandler.Login)

	return &testAPI{
		store:  store,
		tokens: tokens,
		server: middleware.JWTMiddleware(tokens, discardLogger())(mux),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (a *testAPI) seedHouse(t *testing.T, capacity int) int64 {
	t.Helper()
	h := &domain.House{Name: "villa", Description: "sea view villa", Amenities: "pool", City: "Bodrum", Capacity: capacity}
	require.NoError(t, a.store.Create(context.Background(), h))
	return h.ID
}

func (a *testAPI) token(t *testing.T, userID int64, username string) string {
	t.Helper()
	token, err := a.tokens.GenerateToken(userID, username)
	require.NoError(t, err)
	return token
}

// do posts a JSON body and returns status plus decoded response body.
func (a *testAPI) do(t *testing.T, path, token string, body any) (int, map[string]any) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec.Code, decoded
}

func TestQueryHousesValidation(t *testing.T) {
	api := newTestAPI(t)
	api.seedHouse(t, 4)

	cases := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"missing from", map[string]any{"to": "2024-06-05", "people": 2}, 400, "From date is required"},
		{"missing to", map[string]any{"from": "2024-06-01", "people": 2}, 400, "To date is required"},
		{"missing people", map[string]any{"from": "2024-06-01", "to": "2024-06-05"}, 400, "Number of people is required"},
		{"bad from", map[string]any{"from": "not-a-date", "to": "2024-06-05", "people": 2}, 400, "Invalid date format."},
		{"bad to", map[string]any{"from": "2024-06-01", "to": "2024-99-05", "people": 2}, 400, "Invalid date format."},
		{"zero people", map[string]any{"from": "2024-06-01", "to": "2024-06-05", "people": 0}, 400, "Invalid number of people."},
		{"explicit zero page", map[string]any{"from": "2024-06-01", "to": "2024-06-05", "people": 2, "page": 0}, 400, "Invalid page number."},
		{"explicit zero limit", map[string]any{"from": "2024-06-01", "to": "2024-06-05", "people": 2, "limit": 0}, 400, "Invalid limit."},
		{"reversed range", map[string]any{"from": "2024-06-05", "to": "2024-06-01", "people": 2}, 400, "From date should be before to date."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := api.do(t, "/api/v1/query_houses", "", tc.body)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, body["message"])
		})
	}
}

func TestQueryHousesResponseShape(t *testing.T) {
	api := newTestAPI(t)
	id := api.seedHouse(t, 4)

	status, body := api.do(t, "/api/v1/query_houses", "", map[string]any{
		"from": "2024-06-01", "to": "2024-06-05", "people": 2,
	})
	require.Equal(t, 200, status)
	require.EqualValues(t, 1, body["total_results"])
	require.EqualValues(t, 1, body["current_page"])
	require.EqualValues(t, 1, body["total_pages"])

	houses, ok := body["houses"].([]any)
	require.True(t, ok)
	require.Len(t, houses, 1)

	house := houses[0].(map[string]any)
	require.EqualValues(t, id, house["id"])
	require.Equal(t, "sea view villa", house["description"])
	require.Equal(t, "pool", house["amenities"])
	require.Equal(t, "Bodrum", house["city"])
	require.EqualValues(t, 4, house["capacity"])
}

func TestBookStayRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	api.seedHouse(t, 4)
	payload := map[string]any{"house_id": 1, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"A"}}

	status, body := api.do(t, "/api/v1/book_stay", "", payload)
	require.Equal(t, 401, status)
	require.Equal(t, "Missing Authorization Header", body["message"])

	// Malformed header
	req := httptest.NewRequest(http.MethodPost, "/api/v1/book_stay", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "NotBearer xyz")
	rec := httptest.NewRecorder()
	api.server.ServeHTTP(rec, req)
	require.Equal(t, 401, rec.Code)
	require.JSONEq(t, `{"message":"Invalid Authorization Header"}`, rec.Body.String())

	// Garbage token
	status, body = api.do(t, "/api/v1/book_stay", "garbage", payload)
	require.Equal(t, 401, status)
	require.Equal(t, "Invalid or expired token", body["message"])
}

func TestBookStayValidationAndOutcomes(t *testing.T) {
	api := newTestAPI(t)
	id := api.seedHouse(t, 4)
	token := api.token(t, 1, "alice")

	cases := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"missing house id", map[string]any{"from": "2024-06-01", "to": "2024-06-05", "names": []string{"A"}}, 400, "House ID is required"},
		{"missing from", map[string]any{"house_id": id, "to": "2024-06-05", "names": []string{"A"}}, 400, "From date is required"},
		{"missing to", map[string]any{"house_id": id, "from": "2024-06-01", "names": []string{"A"}}, 400, "To date is required"},
		{"missing names", map[string]any{"house_id": id, "from": "2024-06-01", "to": "2024-06-05"}, 400, "Names are required"},
		{"bad date", map[string]any{"house_id": id, "from": "junk", "to": "2024-06-05", "names": []string{"A"}}, 400, "Invalid date format"},
		{"reversed range", map[string]any{"house_id": id, "from": "2024-06-05", "to": "2024-06-01", "names": []string{"A"}}, 400, "From date should be before to date."},
		{"zero house id", map[string]any{"house_id": 0, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"A"}}, 400, "Invalid house id."},
		{"empty names", map[string]any{"house_id": id, "from": "2024-06-01", "to": "2024-06-05", "names": []string{}}, 400, "User should enter names."},
		{"unknown house", map[string]any{"house_id": 99, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"A"}}, 404, "House is not available for booking"},
		{"over capacity", map[string]any{"house_id": id, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"A", "B", "C", "D", "E"}}, 400, "House capacity is not enough for booking"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := api.do(t, "/api/v1/book_stay", token, tc.body)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, body["message"])
		})
	}

	// Successful booking, then a conflict on the same range.
	payload := map[string]any{"house_id": id, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"Alice", "Bob"}}
	status, body := api.do(t, "/api/v1/book_stay", token, payload)
	require.Equal(t, 201, status)
	require.Equal(t, "Booking successful", body["message"])

	status, body = api.do(t, "/api/v1/book_stay", token, payload)
	require.Equal(t, 404, status)
	require.Equal(t, "House is not available for booking", body["message"])
}

// TestBookingScenario drives the documented end-to-end flow: register,
// book a range, then confirm searches inside the range exclude the house
// while disjoint ranges still find it.
func TestBookingScenario(t *testing.T) {
	api := newTestAPI(t)
	id := api.seedHouse(t, 4)

	status, body := api.do(t, "/api/v1/register", "", map[string]any{"username": "carol", "password": "secret"})
	require.Equal(t, 201, status)
	token := body["access_token"].(string)

	status, body = api.do(t, "/api/v1/book_stay", token, map[string]any{
		"house_id": id, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"Carol", "Dan"},
	})
	require.Equal(t, 201, status)
	require.Equal(t, "Booking successful", body["message"])

	status, body = api.do(t, "/api/v1/query_houses", "", map[string]any{
		"from": "2024-06-03", "to": "2024-06-04", "people": 1,
	})
	require.Equal(t, 200, status)
	require.Empty(t, body["houses"])
	require.EqualValues(t, 0, body["total_results"])

	status, body = api.do(t, "/api/v1/query_houses", "", map[string]any{
		"from": "2024-06-06", "to": "2024-06-10", "people": 1,
	})
	require.Equal(t, 200, status)
	houses := body["houses"].([]any)
	require.Len(t, houses, 1)
	require.EqualValues(t, id, houses[0].(map[string]any)["id"])
}

func TestRegisterAndLoginWire(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, "/api/v1/register", "", map[string]any{"username": "alice", "password": "secret"})
	require.Equal(t, 201, status)
	require.Equal(t, "User registration successful", body["message"])
	require.NotEmpty(t, body["access_token"])

	status, body = api.do(t, "/api/v1/register", "", map[string]any{"username": "alice", "password": "other"})
	require.Equal(t, 400, status)
	require.Equal(t, "User already exists", body["message"])

	status, body = api.do(t, "/api/v1/login", "", map[string]any{"username": "alice", "password": "secret"})
	require.Equal(t, 200, status)
	require.Equal(t, "User login successful", body["message"])

	// The issued token opens the booking endpoint.
	token, ok := body["access_token"].(string)
	require.True(t, ok)
	api.seedHouse(t, 2)
	status, body = api.do(t, "/api/v1/book_stay", token, map[string]any{
		"house_id": 1, "from": "2024-06-01", "to": "2024-06-05", "names": []string{"Alice"},
	})
	require.Equal(t, 201, status)
	require.Equal(t, "Booking successful", body["message"])

	status, body = api.do(t, "/api/v1/login", "", map[string]any{"username": "nobody", "password": "secret"})
	require.Equal(t, 400, status)
	require.Equal(t, "User does not exist", body["message"])

	status, body = api.do(t, "/api/v1/login", "", map[string]any{"username": "alice", "password": "wrong"})
	require.Equal(t, 400, status)
	require.Equal(t, "Password is incorrect", body["message"])

	status, body = api.do(t, "/api/v1/register", "", map[string]any{"username": "", "password": "secret"})
	require.Equal(t, 400, status)
	require.Equal(t, "This field cannot be blank", body["message"])
}
