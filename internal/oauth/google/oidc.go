// Package google implementa el login social con Google (OIDC): URL de consentimiento,
// canje del código con x/oauth2 y verificación del id_token contra el JWKS publicado.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/userauth/internal/oauth"
)

const (
	ProviderName        = "google"
	defaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"
	// PostMessageRedirect es el redirect_uri que usa el flujo popup de las SPA.
	PostMessageRedirect = "postmessage"
)

var defaultIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Errores del proveedor.
var (
	ErrNoIDToken      = errors.New("google: token response without id_token")
	ErrInvalidIDToken = errors.New("google: invalid id_token")
)

// Config del proveedor. DiscoveryURL, Endpoint, Issuers y HTTPClient son opcionales.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	DiscoveryURL string
	Endpoint     *oauth2.Endpoint
	Issuers      []string
	HTTPClient   *http.Client
}

type discoveryDoc struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// Provider es el cliente OIDC de Google.
type Provider struct {
	oauth        oauth2.Config
	discoveryURL string
	issuers      []string
	http         *http.Client

	sf     singleflight.Group
	mu     sync.RWMutex
	disc   *discoveryDoc
	discAt time.Time
	keys   map[string]*rsa.PublicKey
	keysAt time.Time
}

// New crea el Provider.
func New(cfg Config) *Provider {
	ep := endpoints.Google
	if cfg.Endpoint != nil {
		ep = *cfg.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	p := &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     ep,
		},
		discoveryURL: cfg.DiscoveryURL,
		issuers:      cfg.Issuers,
		http:         cfg.HTTPClient,
	}
	if p.discoveryURL == "" {
		p.discoveryURL = defaultDiscoveryURL
	}
	if len(p.issuers) == 0 {
		p.issuers = defaultIssuers
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: 10 * time.Second}
	}
	return p
}

// AuthURL construye la URL de consentimiento.
func (p *Provider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange canjea code usando el RedirectURL configurado.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	return p.exchange(ctx, code, p.oauth.RedirectURL)
}

// ExchangePostMessage canjea un code obtenido por el popup de una SPA.
func (p *Provider) ExchangePostMessage(ctx context.Context, code string) (*oauth.Identity, error) {
	return p.exchange(ctx, code, PostMessageRedirect)
}

func (p *Provider) exchange(ctx context.Context, code, redirect string) (*oauth.Identity, error) {
	cfg := p.oauth
	cfg.RedirectURL = redirect

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: exchange: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrNoIDToken
	}
	claims, err := p.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	id := &oauth.Identity{
		Provider:   ProviderName,
		ProviderID: claims.Subject,
		FullName:   claims.Name,
		Picture:    claims.Picture,
	}
	// sólo confiamos en emails verificados por Google
	if claims.EmailVerified {
		id.Email = claims.Email
	}
	return id, nil
}

// IDClaims son los claims del id_token que nos interesan.
type IDClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwtv5.RegisteredClaims
}

// VerifyIDToken valida firma RS256, iss, aud y exp.
func (p *Provider) VerifyIDToken(ctx context.Context, raw string) (*IDClaims, error) {
	var claims IDClaims
	tok, err := jwtv5.ParseWithClaims(raw, &claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return p.keyForKid(ctx, kid)
	},
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithAudience(p.oauth.ClientID),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	issOK := false
	for _, iss := range p.issuers {
		if claims.Issuer == iss {
			issOK = true
			break
		}
	}
	if !issOK {
		return nil, fmt.Errorf("%w: bad iss %q", ErrInvalidIDToken, claims.Issuer)
	}
	return &claims, nil
}

func (p *Provider) discovery(ctx context.Context) (*discoveryDoc, error) {
	p.mu.RLock()
	disc, fresh := p.disc, time.Since(p.discAt) < 24*time.Hour
	p.mu.RUnlock()
	if disc != nil && fresh {
		return disc, nil
	}
	v, err, _ := p.sf.Do("discovery", func() (any, error) {
		var dd discoveryDoc
		if err := p.getJSON(ctx, p.discoveryURL, &dd); err != nil {
			return nil, err
		}
		if dd.JWKSURI == "" {
			return nil, errors.New("google: discovery without jwks_uri")
		}
		p.mu.Lock()
		p.disc, p.discAt = &dd, time.Now()
		p.mu.Unlock()
		return &dd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discoveryDoc), nil
}

func (p *Provider) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	p.mu.RLock()
	k, fresh := p.keys[kid], time.Since(p.keysAt) < time.Hour
	p.mu.RUnlock()
	if k != nil && fresh {
		return k, nil
	}
	// kid desconocido o JWKS viejo: refrescar una sola vez aunque haya requests concurrentes
	_, err, _ := p.sf.Do("jwks", func() (any, error) {
		disc, err := p.discovery(ctx)
		if err != nil {
			return nil, err
		}
		var set jwks
		if err := p.getJSON(ctx, disc.JWKSURI, &set); err != nil {
			return nil, err
		}
		keys := make(map[string]*rsa.PublicKey, len(set.Keys))
		for _, j := range set.Keys {
			if !strings.EqualFold(j.Kty, "RSA") {
				continue
			}
			pub, err := rsaKey(j)
			if err != nil {
				return nil, err
			}
			keys[j.Kid] = pub
		}
		p.mu.Lock()
		p.keys, p.keysAt = keys, time.Now()
		p.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	k = p.keys[kid]
	p.mu.RUnlock()
	if k == nil {
		return nil, errors.New("google: kid not found")
	}
	return k, nil
}

func rsaKey(j jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

func (p *Provider) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("google: GET %s: http %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
