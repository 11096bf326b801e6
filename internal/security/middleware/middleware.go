package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/omerdikyol/api-for-travel-company/internal/security/audit"
	"github.com/omerdikyol/api-for-travel-company/internal/security/auth"
	"github.com/omerdikyol/api-for-travel-company/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

const (
	bookPath     = "/api/v1/book_stay"
	registerPath = "/api/v1/register"
	loginPath    = "/api/v1/login"
)

// RequestID attaches a request id to the context and response headers and
// logs request completion.
func RequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), audit.RequestIDKey, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// JWTMiddleware guards the booking endpoint. Searching and the auth
// endpoints stay public; everything behind the guard gets the validated
// claims injected into the request context.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != bookPath {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Missing Authorization Header")
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeUnauthorized(w, "Invalid Authorization Header")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"` + msg + `"}`))
}

// RateLimitMiddleware applies the sliding-window limit per caller. The
// auth endpoints get a much tighter window to damp credential stuffing.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)

			allowed := limiter.Allow(key)
			if allowed && (r.URL.Path == registerPath || r.URL.Path == loginPath) {
				allowed = limiter.AllowStrict(key, 10, time.Minute)
			}

			if !allowed {
				log.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"message":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// callerKey prefers the authenticated username, falling back to the
// remote address for anonymous callers.
func callerKey(r *http.Request) string {
	if c := r.Context().Value(ClaimsContextKey{}); c != nil {
		if claims, ok := c.(*auth.Claims); ok {
			return claims.Username
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuditMiddleware records booking and auth attempts as they enter the
// handler chain.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				username := ""
				if claims := GetClaimsFromContext(r.Context()); claims != nil {
					username = claims.Username
				}
				switch r.URL.Path {
				case bookPath:
					auditLog.LogBooking(r.Context(), username, "", "initiated", "")
				case registerPath:
					auditLog.LogAuth(r.Context(), username, "register", "initiated")
				case loginPath:
					auditLog.LogAuth(r.Context(), username, "login", "initiated")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the JWT claims injected by JWTMiddleware,
// or nil for unauthenticated requests.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		if claims, ok := c.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
