// Package oauth agrupa los proveedores de login social (google, facebook) y
// el store del parámetro state usado en los flujos con redirect.
package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/userauth/internal/cache"
	tokens "github.com/dropDatabas3/userauth/internal/security/token"
)

// Identity es lo que un proveedor devuelve una vez verificado el código.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	FullName   string
	Picture    string
}

// ErrInvalidState indica state desconocido, expirado o de otro proveedor.
var ErrInvalidState = errors.New("oauth: invalid state")

// StateTTL es la vida de un state emitido.
const StateTTL = 10 * time.Minute

// StateStore guarda los state emitidos en el cache (go-cache o redis).
type StateStore struct {
	c   cache.Client
	ttl time.Duration
}

// NewStateStore crea el store. ttl <= 0 usa StateTTL.
func NewStateStore(c cache.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = StateTTL
	}
	return &StateStore{c: c, ttl: ttl}
}

func stateKey(s string) string { return "oauth:state:" + s }

// Issue genera y registra un state para provider.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	state, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return "", err
	}
	if err := s.c.Set(ctx, stateKey(state), provider, s.ttl); err != nil {
		return "", err
	}
	return state, nil
}

// Consume valida el state y lo borra (uso único). El get+delete es atómico:
// dos callbacks concurrentes con el mismo state no pasan los dos.
func (s *StateStore) Consume(ctx context.Context, provider, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	v, err := s.c.GetDel(ctx, stateKey(state))
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrInvalidState
		}
		return err
	}
	if v != provider {
		return ErrInvalidState
	}
	return nil
}

// TTL devuelve la vida de un state (la cookie que lo ata al browser dura lo mismo).
func (s *StateStore) TTL() time.Duration { return s.ttl }
