// Package auth contiene los controllers de /auth.
package auth

import svc "github.com/dropDatabas3/userauth/internal/http/services/auth"

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Auth    *AuthController
	Profile *ProfileController
}

// NewControllers crea el agregador. uploadDir es la raíz de UPLOAD_DIR.
func NewControllers(s svc.Service, uploadDir string) *Controllers {
	return &Controllers{
		Auth:    NewAuthController(s),
		Profile: NewProfileController(s, uploadDir),
	}
}
