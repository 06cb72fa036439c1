package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/domain"
)

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, Options{AllowedOrigin: "https://vendite.example"})
	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "https://vendite.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightShortCircuits(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := srv.do(t, http.MethodOptions, "/api/v1/records/bulk", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := srv.do(t, http.MethodGet, "/api/v1/records?kind=sales", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/records?kind=sales", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer := srv.login(t, "guest", "viewer-pass")
	rec = srv.do(t, http.MethodGet, "/api/v1/audit-logs", viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginAttemptLimiter(t *testing.T) {
	srv := newTestServer(t, Options{})
	for i := 0; i < 5; i++ {
		rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: adminPassword})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGlobalRateLimiter(t *testing.T) {
	srv := newTestServer(t, Options{RequestsPerSecond: 1})

	// Burst is 3 at one request per second.
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, srv.do(t, http.MethodGet, "/api/v1/records?kind=sales", "", nil).Code)
	}
	assert.Equal(t, []int{401, 401, 401, 429, 429}, codes)

	// Health checks are never throttled.
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestUploadSizeLimit(t *testing.T) {
	srv := newTestServer(t, Options{MaxUploadBytes: 64})
	token := srv.login(t, "carla", "negozio-pass")

	data := bytes.Repeat([]byte("a;b\n"), 100)
	rec := srv.upload(t, "store-sales", token, "big.csv", data)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRequiresFileField(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := srv.login(t, "carla", "negozio-pass")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/store-sales", bytes.NewReader([]byte("x")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
