package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGoogle struct {
	srv       *httptest.Server
	key       *rsa.PrivateKey
	idToken   string
	jwksHits  atomic.Int32
	lastRedir string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeGoogle{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   f.srv.URL,
			"jwks_uri": f.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		f.jwksHits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.lastRedir = r.PostForm.Get("redirect_uri")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.idToken,
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) sign(t *testing.T, claims IDClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func (f *fakeGoogle) provider() *Provider {
	return New(Config{
		ClientID:     "client-1",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/google/redirect",
		DiscoveryURL: f.srv.URL + "/.well-known/openid-configuration",
		Endpoint: &oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/auth",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Issuers:    []string{f.srv.URL},
		HTTPClient: f.srv.Client(),
	})
}

func validClaims(iss string) IDClaims {
	now := time.Now()
	return IDClaims{
		Email:         "jane@example.com",
		EmailVerified: true,
		Name:          "Jane Doe",
		Picture:       "https://example.com/p.png",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    iss,
			Subject:   "g-123",
			Audience:  jwtv5.ClaimStrings{"client-1"},
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestExchangeReturnsIdentity(t *testing.T) {
	f := newFakeGoogle(t)
	f.idToken = f.sign(t, validClaims(f.srv.URL))
	p := f.provider()

	id, err := p.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "google", id.Provider)
	require.Equal(t, "g-123", id.ProviderID)
	require.Equal(t, "jane@example.com", id.Email)
	require.Equal(t, "Jane Doe", id.FullName)
	require.Equal(t, "http://localhost/api/auth/google/redirect", f.lastRedir)

	_, err = p.ExchangePostMessage(context.Background(), "code-2")
	require.NoError(t, err)
	require.Equal(t, PostMessageRedirect, f.lastRedir)
	require.EqualValues(t, 1, f.jwksHits.Load(), "jwks cacheado")
}

func TestUnverifiedEmailIsDropped(t *testing.T) {
	f := newFakeGoogle(t)
	c := validClaims(f.srv.URL)
	c.EmailVerified = false
	f.idToken = f.sign(t, c)

	id, err := f.provider().Exchange(context.Background(), "code")
	require.NoError(t, err)
	require.Empty(t, id.Email)
}

func TestVerifyIDTokenRejects(t *testing.T) {
	f := newFakeGoogle(t)
	p := f.provider()
	ctx := context.Background()

	badAud := validClaims(f.srv.URL)
	badAud.Audience = jwtv5.ClaimStrings{"other"}
	_, err := p.VerifyIDToken(ctx, f.sign(t, badAud))
	require.ErrorIs(t, err, ErrInvalidIDToken)

	badIss := validClaims("https://evil.example.com")
	_, err = p.VerifyIDToken(ctx, f.sign(t, badIss))
	require.ErrorIs(t, err, ErrInvalidIDToken)

	expired := validClaims(f.srv.URL)
	expired.ExpiresAt = jwtv5.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = p.VerifyIDToken(ctx, f.sign(t, expired))
	require.ErrorIs(t, err, ErrInvalidIDToken)

	_, err = p.VerifyIDToken(ctx, "not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestAuthURL(t *testing.T) {
	f := newFakeGoogle(t)
	u, err := url.Parse(f.provider().AuthURL("st-1"))
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "st-1", q.Get("state"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Contains(t, q.Get("scope"), "openid")
}
