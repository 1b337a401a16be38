// Package router arma el árbol de rutas HTTP sobre chi.
//
// Cada ruta es una entrada de tabla que declara si es pública, qué tipos de
// cuenta admite y si lleva rate limit o no-store. A partir de la entrada se
// arma su cadena: MarkPublic -> Guard -> RequireAccountType -> RateLimit -> NoStore.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/userauth/internal/domain/types"
	authctrl "github.com/dropDatabas3/userauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/userauth/internal/http/controllers/health"
	socialctrl "github.com/dropDatabas3/userauth/internal/http/controllers/social"
	usersctrl "github.com/dropDatabas3/userauth/internal/http/controllers/users"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	mw "github.com/dropDatabas3/userauth/internal/http/middlewares"
	"github.com/dropDatabas3/userauth/internal/rate"
)

// Route es una entrada de la tabla de rutas.
type Route struct {
	Method       string
	Pattern      string
	Handler      http.HandlerFunc
	Public       bool
	AccountTypes []types.AccountType // vacío = cualquier cuenta autenticada
	Rate         RateClass
	NoStore      bool
}

// RateClass elige el limiter de una ruta.
type RateClass int

const (
	RateNone RateClass = iota
	RateLogin
	RateOTP
)

// Deps son las dependencias del router. Controllers nil no se montan.
type Deps struct {
	Auth   *authctrl.Controllers
	Social *socialctrl.Controllers
	Users  *usersctrl.UsersController
	Health *healthctrl.HealthController

	Verifier mw.AccessVerifier
	Revoked  mw.RevocationChecker
	// nil = sin rate limit para esa clase
	LoginLimiter rate.Limiter
	OTPLimiter   rate.Limiter

	// APIPrefix antepone las rutas de negocio (p.ej. "/api"). Health,
	// /metrics y /uploads quedan en la raíz.
	APIPrefix   string
	CORSOrigins []string
	UploadDir   string       // "" = no sirve /uploads
	Metrics     http.Handler // nil = sin /metrics
}

// New devuelve el handler raíz con la cadena global aplicada.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	for _, rt := range healthRoutes(d) {
		r.Method(rt.Method, rt.Pattern, d.handler(rt))
	}
	prefix := strings.TrimRight(d.APIPrefix, "/")
	var api []Route
	api = append(api, authRoutes(d)...)
	api = append(api, socialRoutes(d)...)
	api = append(api, usersRoutes(d)...)
	for _, rt := range api {
		r.Method(rt.Method, prefix+rt.Pattern, d.handler(rt))
	}

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.UploadDir != "" {
		prefix := strings.TrimSuffix(helpers.UploadsURLPrefix, "/")
		fs := http.StripPrefix(helpers.UploadsURLPrefix, http.FileServer(http.Dir(d.UploadDir)))
		r.Method(http.MethodGet, prefix+"/*", noDirListing(fs))
	}

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
		mw.WithMetrics(),
		mw.WithLogging(),
	)
}

// handler arma la cadena de una entrada.
func (d Deps) handler(rt Route) http.Handler {
	chain := make([]mw.Middleware, 0, 5)
	if rt.Public {
		chain = append(chain, mw.MarkPublic())
	}
	chain = append(chain, mw.Guard(d.Verifier, d.Revoked))
	if len(rt.AccountTypes) > 0 {
		chain = append(chain, mw.RequireAccountType(rt.AccountTypes...))
	}
	if l := d.limiter(rt.Rate); l != nil {
		chain = append(chain, mw.WithRateLimit(l, mw.IPPathRateKey))
	}
	if rt.NoStore {
		chain = append(chain, mw.WithNoStore())
	}
	return mw.Chain(rt.Handler, chain...)
}

func (d Deps) limiter(c RateClass) rate.Limiter {
	switch c {
	case RateLogin:
		return d.LoginLimiter
	case RateOTP:
		return d.OTPLimiter
	}
	return nil
}

// noDirListing devuelve 404 para directorios en /uploads.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			httperrors.WriteError(w, httperrors.ErrNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthRoutes(d Deps) []Route {
	if d.Health == nil {
		return nil
	}
	return []Route{
		{Method: http.MethodGet, Pattern: "/healthz", Handler: d.Health.Healthz, Public: true},
		{Method: http.MethodGet, Pattern: "/readyz", Handler: d.Health.Readyz, Public: true},
	}
}
