// Package otp emite, verifica y consume los códigos de un solo uso.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// ErrInvalidOrExpired es el único error de verificación: código distinto,
// vencido, inexistente o ya consumido.
var ErrInvalidOrExpired = errors.New("otp: invalid or expired")

// DefaultTTL de un código emitido.
const DefaultTTL = 10 * time.Minute

// Manager orquesta el OTP store.
type Manager struct {
	store repository.OTPRepository
	gen   Generator
	ttl   time.Duration
	now   func() time.Time
}

// NewManager crea un Manager. gen nil usa RandomGenerator de 4 dígitos.
func NewManager(store repository.OTPRepository, gen Generator, ttl time.Duration) *Manager {
	if gen == nil {
		gen = RandomGenerator{Length: 4}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, gen: gen, ttl: ttl, now: time.Now}
}

// Issue genera un código y reemplaza cualquier OTP previo del email.
func (m *Manager) Issue(ctx context.Context, email string) (string, time.Time, error) {
	code, err := m.gen.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := m.now().Add(m.ttl).UTC()
	if _, err := m.store.Upsert(ctx, email, code, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("otp: store: %w", err)
	}
	logger.From(ctx).Debug("otp issued", logger.Email(email), logger.String("expires_at", expiresAt.Format(time.RFC3339)))
	return code, expiresAt, nil
}

// Verify chequea email+código+vigencia y borra el OTP. Dos verificaciones
// concurrentes del mismo código: sólo una gana (Delete por id es exactamente-una-vez).
func (m *Manager) Verify(ctx context.Context, email, code string) error {
	o, err := m.store.FindLatest(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("otp: lookup: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 || o.Expired(m.now()) {
		return ErrInvalidOrExpired
	}
	if err := m.store.Delete(ctx, o.ID); err != nil {
		if repository.IsNotFound(err) {
			// otro request lo consumió o lo reemplazó primero
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("otp: consume: %w", err)
	}
	return nil
}

// Check valida sin consumir. Se usa para rechazar un reset antes de gastar el código.
func (m *Manager) Check(ctx context.Context, email, code string) error {
	o, err := m.store.FindLatest(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("otp: lookup: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 || o.Expired(m.now()) {
		return ErrInvalidOrExpired
	}
	return nil
}

// TTL configurado.
func (m *Manager) TTL() time.Duration { return m.ttl }
