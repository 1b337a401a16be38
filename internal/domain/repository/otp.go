package repository

import (
	"context"
	"time"
)

// OTP es un código de un solo uso ligado a un email.
type OTP struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reporta si el OTP ya no es válido en now.
func (o *OTP) Expired(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

// OTPRepository es el OTP Store. Hay a lo sumo un OTP por email.
type OTPRepository interface {
	// FindLatest devuelve el OTP vigente o no del email. ErrNotFound si no hay.
	FindLatest(ctx context.Context, email string) (*OTP, error)

	// Upsert reemplaza atómicamente cualquier OTP previo del email.
	// Cada llamada asigna un ID nuevo.
	Upsert(ctx context.Context, email, code string, expiresAt time.Time) (*OTP, error)

	// Delete elimina por ID. ErrNotFound si ya no existe (consumido o reemplazado).
	Delete(ctx context.Context, id string) error
}
