// Package events publica eventos de cuenta (registro, login, cambios de password) hacia Kafka.
// Sin brokers configurados se usa Noop. Publicar es best-effort para los flujos de auth.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento.
const (
	UserRegistered      = "user.registered"
	UserVerified        = "user.verified"
	UserLoggedIn        = "user.logged_in"
	UserPasswordReset   = "user.password_reset"
	UserPasswordChanged = "user.password_changed"
	UserLoggedOut       = "user.logged_out"
)

// Event es el payload publicado (JSON).
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	UserID     string            `json:"userId"`
	Email      string            `json:"email,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}

// New arma un evento con id y timestamp.
func New(typ, userID, email string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// With agrega un atributo.
func (e Event) With(k, v string) Event {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[k] = v
	return e
}

// Publisher publica eventos de cuenta.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop descarta todo.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
