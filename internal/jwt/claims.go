package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/userauth/internal/domain/types"
)

// Valores de token_use.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Claims son los claims de ambos tokens del par; token_use los distingue.
// sub = user id, jti = uuid por token.
type Claims struct {
	Email       string            `json:"email"`
	AccountType types.AccountType `json:"accountType"`
	TokenUse    string            `json:"token_use"`
	jwtv5.RegisteredClaims
}

// UserID devuelve el subject.
func (c *Claims) UserID() string { return c.Subject }

// TokenPair es lo que reciben los clientes tras login/verify/refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
