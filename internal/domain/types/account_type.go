// Package types contiene tipos de dominio compartidos entre capas.
package types

import "strings"

// AccountType es el rol grueso de una cuenta.
type AccountType string

const (
	AccountUser       AccountType = "USER"
	AccountSuperAdmin AccountType = "SUPERADMIN"
)

// ParseAccountType normaliza s; devuelve false si no es un tipo conocido.
func ParseAccountType(s string) (AccountType, bool) {
	switch AccountType(strings.ToUpper(strings.TrimSpace(s))) {
	case AccountUser:
		return AccountUser, true
	case AccountSuperAdmin:
		return AccountSuperAdmin, true
	}
	return "", false
}

func (a AccountType) String() string { return string(a) }

// Valid reporta si a es un tipo conocido.
func (a AccountType) Valid() bool {
	_, ok := ParseAccountType(string(a))
	return ok
}

// In reporta si a pertenece a allowed.
func (a AccountType) In(allowed ...AccountType) bool {
	for _, t := range allowed {
		if a == t {
			return true
		}
	}
	return false
}
