// Package validation tiene las reglas de formato de los DTOs (email, teléfono)
// y un acumulador de errores por campo.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

// Teléfono: exactamente 10 dígitos.
var phoneRe = regexp.MustCompile(`^\d{10}$`)

// Dominio con al menos un punto y TLD alfabético; net/mail solo valida la sintaxis RFC.
var emailDomainRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)

// ValidEmail reporta si s es una dirección simple (sin display name).
func ValidEmail(s string) bool {
	if s == "" || len(s) > 254 || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && emailDomainRe.MatchString(s[at+1:])
}

// ValidPhone reporta si s tiene exactamente 10 dígitos.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// Errors acumula mensajes de validación en orden.
type Errors struct {
	msgs []string
}

// Check agrega msg si cond es falso.
func (e *Errors) Check(cond bool, msg string) {
	if !cond {
		e.msgs = append(e.msgs, msg)
	}
}

// Add agrega msgs incondicionalmente.
func (e *Errors) Add(msgs ...string) { e.msgs = append(e.msgs, msgs...) }

// Empty reporta si no hubo errores.
func (e *Errors) Empty() bool { return len(e.msgs) == 0 }

// Messages devuelve los mensajes acumulados.
func (e *Errors) Messages() []string { return e.msgs }

// Error junta los mensajes con "; ".
func (e *Errors) Error() string { return strings.Join(e.msgs, "; ") }
