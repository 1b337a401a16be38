// Package social contiene los controllers de login social (Google, Facebook).
package social

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	svc "github.com/dropDatabas3/userauth/internal/http/services/auth"
	"github.com/dropDatabas3/userauth/internal/oauth"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// Provider es un flujo authorization-code con redirect.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Identity, error)
}

// CodeExchanger canjea códigos emitidos al popup de una SPA (redirect "postmessage").
type CodeExchanger interface {
	ExchangePostMessage(ctx context.Context, code string) (*oauth.Identity, error)
}

// States emite y consume el parámetro state.
type States interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, provider, state string) error
	TTL() time.Duration
}

// El state también viaja en una cookie: el callback sólo se acepta en el
// mismo browser que inició el flujo.
func stateCookie(provider string) string { return "oauth_state_" + provider }

// Controllers agrupa los controllers sociales. Un proveedor nil no se monta.
type Controllers struct {
	Google      *ProviderController
	GoogleLogin *GoogleLoginController
	Facebook    *ProviderController
}

// ProviderController maneja el redirect y el callback de un proveedor.
type ProviderController struct {
	name    string // "google" | "facebook"
	label   string // para mensajes: "Google" | "Facebook"
	p       Provider
	states  States
	service svc.Service
}

// NewProviderController crea el controller de un proveedor.
func NewProviderController(name, label string, p Provider, states States, service svc.Service) *ProviderController {
	return &ProviderController{name: name, label: label, p: p, states: states, service: service}
}

// Redirect maneja GET /auth/{provider}: manda al consentimiento con un state nuevo.
func (c *ProviderController) Redirect(w http.ResponseWriter, r *http.Request) {
	state, err := c.states.Issue(r.Context(), c.name)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	http.SetCookie(w, helpers.BuildCookie(stateCookie(c.name), state, helpers.IsSecureRequest(r), c.states.TTL()))
	http.Redirect(w, r, c.p.AuthURL(state), http.StatusFound)
}

// Callback maneja GET /auth/{provider}/redirect?code&state.
func (c *ProviderController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("ProviderController.Callback"),
		logger.Provider(c.name),
	)
	q := r.URL.Query()
	http.SetCookie(w, helpers.BuildDeletionCookie(stateCookie(c.name), helpers.IsSecureRequest(r)))

	if idpErr := strings.TrimSpace(q.Get("error")); idpErr != "" {
		log.Warn("provider returned error", logger.String("error", idpErr))
		c.failed(w, idpErr)
		return
	}
	state := q.Get("state")
	if ck, err := r.Cookie(stateCookie(c.name)); err != nil || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) != 1 {
		log.Warn("state cookie missing or mismatched")
		c.failed(w, "invalid state")
		return
	}
	if err := c.states.Consume(ctx, c.name, state); err != nil {
		log.Warn("invalid state", logger.Err(err))
		c.failed(w, "invalid state")
		return
	}
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		c.failed(w, "Missing server authorization code")
		return
	}

	id, err := c.p.Exchange(ctx, code)
	if err != nil {
		log.Warn("code exchange failed", logger.Err(err))
		c.failed(w, "")
		return
	}
	c.login(w, r, *id, http.StatusOK)
}

func (c *ProviderController) login(w http.ResponseWriter, r *http.Request, id oauth.Identity, status int) {
	res, err := c.service.SocialLogin(r.Context(), id)
	if err != nil {
		writeSocialError(w, err)
		return
	}
	helpers.WriteSuccess(w, status, res.Message, res)
}

func (c *ProviderController) failed(w http.ResponseWriter, detail string) {
	httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage(c.label+" authentication failed").WithDetail(detail))
}

// GoogleLoginController maneja POST /auth/google/login {code}.
type GoogleLoginController struct {
	p       CodeExchanger
	service svc.Service
}

// NewGoogleLoginController crea el controller.
func NewGoogleLoginController(p CodeExchanger, service svc.Service) *GoogleLoginController {
	return &GoogleLoginController{p: p, service: service}
}

// Login canjea el code del popup y hace login social.
func (c *GoogleLoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dto.GoogleCodeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Google authentication failed: Missing server authorization code"))
		return
	}
	id, err := c.p.ExchangePostMessage(ctx, req.Code)
	if err != nil {
		logger.From(ctx).Warn("google code exchange failed", logger.Provider("google"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Google authentication failed"))
		return
	}
	res, err := c.service.SocialLogin(ctx, *id)
	if err != nil {
		writeSocialError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

func writeSocialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrSocialEmailMissing):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Email not provided by social provider"))
	case errors.Is(err, svc.ErrAccountDeactivated):
		httperrors.WriteError(w, httperrors.ErrAccountDeactivated)
	case errors.Is(err, svc.ErrEmailExists), errors.Is(err, svc.ErrPhoneExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithMessage("Email already exists"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
