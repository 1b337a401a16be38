package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeFacebook(t *testing.T, me map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fb-at", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fb-at" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func client(srv *httptest.Server) *OAuth {
	return New(Config{
		AppID:       "app",
		AppSecret:   "secret",
		RedirectURL: "http://localhost/api/auth/facebook/redirect",
		Endpoint: &oauth2.Endpoint{
			AuthURL:   srv.URL + "/dialog/oauth",
			TokenURL:  srv.URL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		GraphURL:   srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestExchangeFetchesProfile(t *testing.T) {
	srv := newFakeFacebook(t, map[string]any{
		"id":         "fb-1",
		"email":      "joe@example.com",
		"first_name": "Joe",
		"last_name":  "Smith",
		"picture":    map[string]any{"data": map[string]any{"url": "https://cdn/x.jpg"}},
	})

	id, err := client(srv).Exchange(context.Background(), "code")
	require.NoError(t, err)
	require.Equal(t, "facebook", id.Provider)
	require.Equal(t, "fb-1", id.ProviderID)
	require.Equal(t, "joe@example.com", id.Email)
	require.Equal(t, "Joe Smith", id.FullName)
	require.Equal(t, "https://cdn/x.jpg", id.Picture)
}

func TestExchangeWithoutEmail(t *testing.T) {
	srv := newFakeFacebook(t, map[string]any{"id": "fb-2", "first_name": "Ann"})
	id, err := client(srv).Exchange(context.Background(), "code")
	require.NoError(t, err)
	require.Empty(t, id.Email)
	require.Equal(t, "Ann", id.FullName)
}

func TestAuthURLCarriesState(t *testing.T) {
	srv := newFakeFacebook(t, nil)
	require.Contains(t, client(srv).AuthURL("abc"), "state=abc")
}
