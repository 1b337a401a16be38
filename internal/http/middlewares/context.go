package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxPublic
	ctxClaims
	ctxUserID
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxRequestID, rid)
}

// GetRequestID devuelve el request id o "".
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestID).(string)
	return s
}

// IsPublic reporta si la ruta fue marcada con MarkPublic.
func IsPublic(ctx context.Context) bool {
	b, _ := ctx.Value(ctxPublic).(bool)
	return b
}

// WithClaims guarda las claims del access token.
func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// GetClaims devuelve las claims o nil si la ruta no pasó por Guard.
func GetClaims(ctx context.Context) *jwtx.Claims {
	c, _ := ctx.Value(ctxClaims).(*jwtx.Claims)
	return c
}

// WithUserID guarda el id del usuario autenticado.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}

// GetUserID devuelve el id del usuario autenticado o "".
func GetUserID(ctx context.Context) string {
	s, _ := ctx.Value(ctxUserID).(string)
	return s
}
