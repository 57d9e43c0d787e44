package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"luckabet/internal/models"
	"luckabet/internal/security"
	"luckabet/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	UserContextKey   ContextKey = "user"
	ClaimsContextKey ContextKey = "claims"
)

// Middleware holds dependencies for middleware functions.
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	trustProxy  bool
	log         zerolog.Logger
}

// NewMiddleware creates a new middleware instance. trustProxy controls
// whether rate limiting identifies clients by forwarding headers.
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, trustProxy bool, log zerolog.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		trustProxy:  trustProxy,
		log:         log,
	}
}

// RequireAuth validates the session cookie and puts the user on the request
// context. An invalid or revoked session clears the cookie.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}

		user, claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r))
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth plus an admin role check.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin() {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next(w, r)
	})
}

// CSRFProtect verifies the X-CSRF-Token header on state-changing requests.
// Must wrap a handler that already ran RequireAuth.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}

		claims := GetClaimsFromContext(r.Context())
		token := r.Header.Get("X-CSRF-Token")
		if claims == nil || token == "" || !m.csrf.ValidateToken(claims.ID, token) {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "invalid csrf token"})
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients that exceed the per-IP budget.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r, m.trustProxy)
		if !m.limiter.Allow(ip) {
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Logging logs every HTTP request with method, path, status and duration.
func Logging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// GetUserFromContext retrieves the authenticated user from the request
// context, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetClaimsFromContext retrieves the session claims from the request
// context, or nil.
func GetClaimsFromContext(ctx context.Context) *security.SessionClaims {
	claims, ok := ctx.Value(ClaimsContextKey).(*security.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
