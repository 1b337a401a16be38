package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BLACKLIST_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("OTP_FIXED_CODE", "1234")
	t.Setenv("OTP_ECHO", "true")
	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("RATE_OTP_LIMIT", "1")
	t.Setenv("UPLOAD_DIR", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildMemory(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(t), BuildInfo{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	rec := post(t, a.Handler, "/api/auth/register", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "Secret#123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"otp":"1234"`)

	rec = post(t, a.Handler, "/api/auth/verify-otp", map[string]string{"email": "alice@example.com", "otp": "1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"accessToken"`)

	// limiter de OTP con límite 1
	rec = post(t, a.Handler, "/api/auth/resend-otp", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = post(t, a.Handler, "/api/auth/resend-otp", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "test", rr.Header().Get("X-Service-Version"))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestBuildUnknownDriver(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = "oracle"
	_, err := Build(context.Background(), cfg, BuildInfo{})
	require.Error(t, err)
}
