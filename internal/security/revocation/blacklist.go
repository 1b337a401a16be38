// Package revocation mantiene la blacklist de access tokens revocados por logout.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/userauth/internal/cache"
)

const keyPrefix = "bl:"

// Blacklist guarda el jti del token con TTL = vida restante del token, así la
// entrada desaparece cuando el token ya no podría validar de todos modos.
// Se indexa por jti y no por el string crudo: dos codificaciones del mismo
// token comparten jti.
type Blacklist struct {
	c          cache.Client
	defaultTTL time.Duration
	now        func() time.Time
}

// New crea la blacklist. defaultTTL (el TTL del access token) acota cada entrada
// y se usa cuando no se conoce la expiración.
func New(c cache.Client, defaultTTL time.Duration) *Blacklist {
	return &Blacklist{c: c, defaultTTL: defaultTTL, now: time.Now}
}

// Add revoca el token con ese jti. Idempotente. expiresAt cero = defaultTTL.
func (b *Blacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("revocation: empty jti")
	}
	ttl := b.ttlFor(expiresAt)
	if ttl <= 0 {
		// ya vencido: el Guard lo rechaza igual
		return nil
	}
	if err := b.c.Set(ctx, key(jti), "1", ttl); err != nil {
		return fmt.Errorf("revocation: add: %w", err)
	}
	return nil
}

// Contains reporta si el jti fue revocado. Un error del backend se devuelve
// tal cual; el Guard lo trata como revocado.
func (b *Blacklist) Contains(ctx context.Context, jti string) (bool, error) {
	ok, err := b.c.Exists(ctx, key(jti))
	if err != nil {
		return false, fmt.Errorf("revocation: lookup: %w", err)
	}
	return ok, nil
}

func (b *Blacklist) ttlFor(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return b.defaultTTL
	}
	ttl := expiresAt.Sub(b.now())
	if b.defaultTTL > 0 && ttl > b.defaultTTL {
		ttl = b.defaultTTL
	}
	return ttl
}

func key(jti string) string { return keyPrefix + jti }
