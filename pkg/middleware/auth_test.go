package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/statkit/absbridge/pkg/services"
)

func protectedHandler(t *testing.T, m *AuthMiddleware) http.Handler {
	t.Helper()
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataflows", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateValidJWT(t *testing.T) {
	tokens := services.NewTokenService("test-secret", 1)
	token, err := tokens.GenerateToken("api-consumer")
	require.NoError(t, err)

	handler := protectedHandler(t, NewAuthMiddleware(tokens, ""))

	rec := doRequest(handler, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateValidAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := protectedHandler(t, NewAuthMiddleware(nil, string(hash)))

	rec := doRequest(handler, "Bearer swordfish")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	handler := protectedHandler(t, NewAuthMiddleware(nil, "irrelevant"))

	rec := doRequest(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateUnsupportedScheme(t *testing.T) {
	handler := protectedHandler(t, NewAuthMiddleware(nil, "irrelevant"))

	rec := doRequest(handler, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret", 1)
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := protectedHandler(t, NewAuthMiddleware(tokens, string(hash)))

	rec := doRequest(handler, "Bearer neither-jwt-nor-key")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateSkipsOptionsRequests(t *testing.T) {
	handler := protectedHandler(t, NewAuthMiddleware(nil, "irrelevant"))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dataflows", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	assert.False(t, limiter.IsLimited("10.0.0.1:1234"))
	for i := 0; i < 3; i++ {
		limiter.Record("10.0.0.1:1234")
	}
	assert.True(t, limiter.IsLimited("10.0.0.1:1234"))

	// Other clients are unaffected
	assert.False(t, limiter.IsLimited("10.0.0.2:1234"))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	limiter := NewRateLimiter(1, 50*time.Millisecond)

	limiter.Record("10.0.0.1:1234")
	assert.True(t, limiter.IsLimited("10.0.0.1:1234"))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, limiter.IsLimited("10.0.0.1:1234"))
}

func TestRepeatedFailuresTriggerRateLimit(t *testing.T) {
	m := NewAuthMiddleware(nil, "irrelevant")
	m.rateLimiter = NewRateLimiter(2, time.Minute)
	handler := protectedHandler(t, m)

	// Failed attempts are recorded until the limit is hit
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, "Bearer bad").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, "Bearer bad").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "Bearer bad").Code)
}
