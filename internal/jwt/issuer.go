// Package jwt emite y verifica el par access/refresh (HS256, secretos distintos).
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/userauth/internal/domain/types"
)

// ErrInvalidToken cubre firma inválida, alg distinto, payload malformado,
// token_use equivocado y expiración. Los callers no distinguen entre ellos.
var ErrInvalidToken = errors.New("invalid token")

// Config del Issuer.
type Config struct {
	Issuer        string // claim iss; vacío = no se emite ni se chequea
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Issuer firma y verifica tokens. Es puro: no guarda estado entre llamadas.
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer valida la config y crea el Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("jwt: access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: TTLs must be positive")
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// AccessTTL expone la vida del access token (TTL por defecto de la blacklist).
func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// RefreshTTL expone la vida del refresh token.
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

// Issue firma un par nuevo. Cada token lleva su propio jti, así dos pares
// emitidos en el mismo segundo nunca son iguales.
func (i *Issuer) Issue(subjectID, email string, accountType types.AccountType) (TokenPair, error) {
	now := i.now()
	access, err := i.sign(subjectID, email, accountType, UseAccess, now, i.cfg.AccessTTL, i.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwt: sign access: %w", err)
	}
	refresh, err := i.sign(subjectID, email, accountType, UseRefresh, now, i.cfg.RefreshTTL, i.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwt: sign refresh: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(sub, email string, at types.AccountType, use string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		Email:       email,
		AccountType: at,
		TokenUse:    use,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess valida un access token y devuelve sus claims.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, UseAccess, i.cfg.AccessSecret)
}

// VerifyRefresh valida un refresh token y devuelve sus claims.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, UseRefresh, i.cfg.RefreshSecret)
}
