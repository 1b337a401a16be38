package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/userauth/internal/domain/types"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// AccessVerifier valida access tokens (lo implementa *jwt.Issuer).
type AccessVerifier interface {
	VerifyAccess(token string) (*jwtx.Claims, error)
}

// RevocationChecker consulta la blacklist de logout por jti (lo implementa *revocation.Blacklist).
type RevocationChecker interface {
	Contains(ctx context.Context, jti string) (bool, error)
}

// MarkPublic marca la ruta como pública; Guard la deja pasar sin token.
// Se agrega en la entrada de la tabla de rutas, antes de Guard.
func MarkPublic() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPublic, true)))
		})
	}
}

// Guard autentica el request:
//
//	public? -> next
//	sin bearer -> 401
//	firma / exp / token_use inválidos -> 401
//	jti en blacklist (o blacklist no disponible) -> 401
//	ok -> claims y user id al contexto
func Guard(verifier AccessVerifier, revoked RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			log := logger.From(r.Context()).With(logger.Layer("middleware"), logger.Op("Guard"))

			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				log.Debug("access token rejected", logger.Err(err))
				unauthorized(w, "invalid or expired token")
				return
			}

			if revoked != nil {
				hit, err := revoked.Contains(r.Context(), claims.ID)
				if err != nil {
					// fail closed
					log.Error("blacklist lookup failed", logger.Err(err))
					unauthorized(w, "")
					return
				}
				if hit {
					unauthorized(w, "token revoked")
					return
				}
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUserID(ctx, claims.UserID())
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(claims.UserID())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccountType exige que el access token sea de alguno de los tipos dados.
// Debe ir después de Guard. Sin tipos no restringe.
func RequireAccountType(allowed ...types.AccountType) Middleware {
	if len(allowed) == 0 {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			c := GetClaims(r.Context())
			if c == nil {
				unauthorized(w, "")
				return
			}
			if !c.AccountType.In(allowed...) {
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(ah[len("bearer "):])
	return raw, raw != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
	e := httperrors.ErrUnauthorized
	if detail != "" {
		e = e.WithDetail(detail)
	}
	httperrors.WriteError(w, e)
}
