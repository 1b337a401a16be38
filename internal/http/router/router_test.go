package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/cache"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	authctrl "github.com/dropDatabas3/userauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/userauth/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/userauth/internal/http/controllers/users"
	authsvc "github.com/dropDatabas3/userauth/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/userauth/internal/http/services/health"
	userssvc "github.com/dropDatabas3/userauth/internal/http/services/users"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/otp"
	"github.com/dropDatabas3/userauth/internal/rate"
	"github.com/dropDatabas3/userauth/internal/security/password"
	"github.com/dropDatabas3/userauth/internal/security/revocation"
	"github.com/dropDatabas3/userauth/internal/store/memory"
)

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	h      http.Handler
	issuer *jwtx.Issuer
}

func newTestServer(t *testing.T, limiter rate.Limiter) *testServer {
	t.Helper()
	return newPrefixedServer(t, limiter, "")
}

func newPrefixedServer(t *testing.T, limiter rate.Limiter, prefix string) *testServer {
	t.Helper()
	conn := memory.New()
	iss, err := jwtx.NewIssuer(jwtx.Config{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	bl := revocation.New(cache.NewMemory("t:"), iss.AccessTTL())
	hash := password.Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}
	dir := t.TempDir()

	auth := authsvc.NewService(authsvc.Deps{
		Users:     conn.Users(),
		OTP:       otp.NewManager(conn.OTPs(), otp.FixedGenerator("1234"), 10*time.Minute),
		Issuer:    iss,
		Blacklist: bl,
		Policy:    password.DefaultPolicy,
		Hash:      hash,
		UploadDir: dir,
	})
	users := userssvc.NewService(userssvc.Deps{Users: conn.Users(), Policy: password.DefaultPolicy, Hash: hash, UploadDir: dir})
	health := healthsvc.NewHealthService(healthsvc.Deps{StoreName: "memory", StoreCheck: conn.Ping})

	h := New(Deps{
		Auth:         authctrl.NewControllers(auth, dir),
		Users:        usersctrl.NewUsersController(users),
		Health:       healthctrl.NewHealthController(health),
		Verifier:     iss,
		Revoked:      bl,
		LoginLimiter: limiter,
		APIPrefix:    prefix,
		UploadDir:    dir,
	})
	return &testServer{h: h, issuer: iss}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func (s *testServer) signup(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Alice", "email": email, "password": "Secret#123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "otp": "1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken, data.RefreshToken
}

func TestRegisterVerifyAndProfile(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "Secret#123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)
	require.Equal(t, "Registration successful. OTP sent to email.", env.Message)
	require.NotContains(t, string(env.Data), "accessToken")
	require.NotContains(t, string(env.Data), "passwordHash")

	rec, env = s.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": "alice@example.com", "otp": "1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "OTP verified successfully", env.Message)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var data struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			IsEmailVerified bool `json:"isEmailVerified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.User.IsEmailVerified)

	rec, env = s.do(t, http.MethodGet, "/auth/profile", data.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), "alice@example.com")
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Alice", "email": "not-an-email", "password": "Secret#123", "phone": "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, "email must be an email", env.Message)

	rec, env = s.do(t, http.MethodPost, "/auth/forget-password", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Email field is required", env.Message)
}

func TestWrongPassword(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "Wrong#123"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", env.Message)
}

func TestLoggedOutTokenIsRejected(t *testing.T) {
	s := newTestServer(t, nil)
	access, _ := s.signup(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/auth/logout", access, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Logged out successfully", env.Message)

	rec, env = s.do(t, http.MethodGet, "/auth/profile", access, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", env.Message)
}

func TestRefreshRoute(t *testing.T) {
	s := newTestServer(t, nil)
	_, refresh := s.signup(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Token refreshed successfully", env.Message)

	rec, env = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Invalid refresh token", env.Message)
}

func TestGuardAndAccountTypes(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/auth/profile", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	userTok, _ := s.signup(t, "alice@example.com")
	rec, env := s.do(t, http.MethodGet, "/users", userTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Insufficient permissions", env.Message)

	pair, err := s.issuer.Issue("root-id", "root@example.com", types.AccountSuperAdmin)
	require.NoError(t, err)
	rec, env = s.do(t, http.MethodGet, "/users?page=1&limit=5", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"total":1`)

	rec, env = s.do(t, http.MethodGet, "/users/search?q=zzz", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User Not Found.", env.Message)
	require.Contains(t, string(env.Data), `"success":false`)

	rec, env = s.do(t, http.MethodGet, "/users/search", pair.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Search query is required", env.Message)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{Allowed: false, Limit: 1, RetryAfter: time.Minute}, nil
}

func TestRateLimitedRoutes(t *testing.T) {
	s := newTestServer(t, denyAll{})

	rec, _ := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@example.com", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec, _ = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@example.com"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// verify-otp no lleva rate limit; forget-password usa el limiter de OTP (nil acá)
	rec, _ = s.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": "a@example.com", "otp": "1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/auth/forget-password", "", map[string]string{"email": "a@example.com"})
	require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ready"`)

	rec, _ = s.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIPrefix(t *testing.T) {
	s := newPrefixedServer(t, nil, "/api")

	rec, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "Secret1!"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", env.Message)

	rec, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "Secret1!"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// health queda en la raíz
	rec, _ = s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
