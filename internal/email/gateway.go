package email

import (
	"context"
	"time"

	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// Gateway es el punto de entrada best-effort: nunca devuelve error, sólo
// si el envío salió. Con el servicio deshabilitado loguea y reporta éxito.
type Gateway struct {
	sender    Sender
	templates *Templates
	enabled   bool
}

// NewGateway crea el gateway. sender puede ser nil si enabled es false.
func NewGateway(sender Sender, templates *Templates, enabled bool) *Gateway {
	return &Gateway{sender: sender, templates: templates, enabled: enabled}
}

// Send envía html crudo.
func (g *Gateway) Send(ctx context.Context, to, subject, html string) bool {
	return g.send(ctx, to, subject, html, "")
}

// SendOTP renderiza el template kind con el código y lo envía.
func (g *Gateway) SendOTP(ctx context.Context, kind Kind, to, code string, ttl time.Duration) bool {
	subject, html, text, err := g.templates.Render(kind, OTPVars{
		Code:       code,
		TTLMinutes: int(ttl.Round(time.Minute) / time.Minute),
		Email:      to,
	})
	if err != nil {
		logger.From(ctx).Error("email template failed", logger.String("template", string(kind)), logger.Err(err))
		return false
	}
	return g.send(ctx, to, subject, html, text)
}

func (g *Gateway) send(ctx context.Context, to, subject, html, text string) bool {
	log := logger.From(ctx).With(logger.Component("email.gateway"), logger.Email(to))
	if !g.enabled || g.sender == nil {
		log.Warn("email sending is disabled, skipping", logger.String("subject", subject))
		return true
	}
	if err := g.sender.Send(to, subject, html, text); err != nil {
		log.Error("failed to send email", logger.Err(err))
		return false
	}
	log.Info("email sent", logger.String("subject", subject))
	return true
}
