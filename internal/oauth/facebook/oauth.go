// Package facebook implementa login social con Facebook. No hay id_token:
// después del canje se consulta la Graph API para obtener el perfil.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/dropDatabas3/userauth/internal/oauth"
)

const (
	ProviderName    = "facebook"
	defaultGraphURL = "https://graph.facebook.com"
	profileFields   = "id,email,first_name,last_name,picture.type(large)"
)

// Config del cliente. Endpoint, GraphURL y HTTPClient son opcionales.
type Config struct {
	AppID       string
	AppSecret   string
	RedirectURL string
	Scopes      []string

	Endpoint   *oauth2.Endpoint
	GraphURL   string
	HTTPClient *http.Client
}

// OAuth es el cliente OAuth 2.0 de Facebook.
type OAuth struct {
	cfg      oauth2.Config
	graphURL string
	http     *http.Client
}

// New crea el cliente.
func New(c Config) *OAuth {
	ep := endpoints.Facebook
	if c.Endpoint != nil {
		ep = *c.Endpoint
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
	}
	o := &OAuth{
		cfg: oauth2.Config{
			ClientID:     c.AppID,
			ClientSecret: c.AppSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       scopes,
			Endpoint:     ep,
		},
		graphURL: strings.TrimRight(c.GraphURL, "/"),
		http:     c.HTTPClient,
	}
	if o.graphURL == "" {
		o.graphURL = defaultGraphURL
	}
	if o.http == nil {
		o.http = &http.Client{Timeout: 10 * time.Second}
	}
	return o
}

// AuthURL construye la URL del diálogo de login.
func (f *OAuth) AuthURL(state string) string {
	return f.cfg.AuthCodeURL(state)
}

type profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Exchange canjea code y trae el perfil de /me.
func (f *OAuth) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.http)
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("facebook: exchange: %w", err)
	}

	u := f.graphURL + "/me?" + url.Values{"fields": {profileFields}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook: graph /me: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("facebook: graph /me: http %d", resp.StatusCode)
	}
	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("facebook: decode profile: %w", err)
	}
	return &oauth.Identity{
		Provider:   ProviderName,
		ProviderID: p.ID,
		Email:      p.Email, // puede venir vacío si el usuario no lo compartió
		FullName:   strings.TrimSpace(p.FirstName + " " + p.LastName),
		Picture:    p.Picture.Data.URL,
	}, nil
}
