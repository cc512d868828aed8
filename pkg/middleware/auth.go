// Package middleware provides HTTP middleware for absbridge.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/statkit/absbridge/pkg/services"
)

// AuthMiddleware provides bearer authentication for the HTTP API. A bearer
// token is accepted when it validates as a JWT, or when it matches the
// configured bcrypt API key hash.
type AuthMiddleware struct {
	tokens      *services.TokenService
	apiKeyHash  string
	rateLimiter *RateLimiter
}

// NewAuthMiddleware creates a new authentication middleware. tokens may be
// nil when no JWT secret is configured; apiKeyHash may be empty.
func NewAuthMiddleware(tokens *services.TokenService, apiKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:      tokens,
		apiKeyHash:  apiKeyHash,
		rateLimiter: NewRateLimiter(100, time.Minute), // 100 attempts per minute
	}
}

// Authenticate is middleware that authenticates requests
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		clientIP := r.RemoteAddr
		if m.rateLimiter.IsLimited(clientIP) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Unsupported authentication method", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if !m.validate(token) {
			m.rateLimiter.Record(clientIP)
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validate checks a bearer token against the JWT service and the API key hash
func (m *AuthMiddleware) validate(token string) bool {
	if m.tokens != nil {
		if _, err := m.tokens.ValidateToken(token); err == nil {
			return true
		}
	}
	if m.apiKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(m.apiKeyHash), []byte(token)); err == nil {
			return true
		}
	}
	return false
}

// RateLimiter implements a simple rate limiting mechanism
type RateLimiter struct {
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Record registers a failed attempt for a client
func (l *RateLimiter) Record(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.attempts[client] = append(l.prune(client, now), now)
}

// IsLimited reports whether a client has exceeded the limit within the window
func (l *RateLimiter) IsLimited(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(client, time.Now())
	l.attempts[client] = recent
	return len(recent) >= l.limit
}

// prune drops attempts outside the window. Caller holds l.mu.
func (l *RateLimiter) prune(client string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.attempts[client][:0]
	for _, t := range l.attempts[client] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
