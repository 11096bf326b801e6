package audit

import (
	"context"
	"log/slog"
	"time"
)

type contextKey struct{}

// RequestIDKey is the context key under which the request-ID middleware
// stores the request id; audit entries pick it up when present.
var RequestIDKey = contextKey{}

// Logger emits structured audit entries for security-relevant actions
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger on top of the application logger
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records one audit entry
func (al *Logger) LogAction(ctx context.Context, username, action, resource, resourceID, status, details string) {
	requestID := ""
	if v := ctx.Value(RequestIDKey); v != nil {
		if id, ok := v.(string); ok {
			requestID = id
		}
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("username", username),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

// LogBooking records a booking attempt against a house
func (al *Logger) LogBooking(ctx context.Context, username, houseID, status, details string) {
	al.LogAction(ctx, username, "book_stay", "house", houseID, status, details)
}

// LogAuth records a registration or login attempt
func (al *Logger) LogAuth(ctx context.Context, username, action, status string) {
	al.LogAction(ctx, username, action, "user", "", status, "")
}

// LogDenied records a rejected request
func (al *Logger) LogDenied(ctx context.Context, username, reason string) {
	al.LogAction(ctx, username, "access_denied", "api", "", "denied", reason)
}
