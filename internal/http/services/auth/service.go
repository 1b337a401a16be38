package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/security/password"
	tokens "github.com/dropDatabas3/userauth/internal/security/token"
)

type service struct {
	deps Deps
}

// NewService crea el orquestador.
func NewService(deps Deps) Service {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Hash == (password.Params{}) {
		deps.Hash = password.Default
	}
	return &service{deps: deps}
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// findUser traduce NotFound a ErrUserNotFound.
func (s *service) findUser(ctx context.Context, email string) (*repository.User, error) {
	u, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// checkPolicy aplica la política de composición.
func (s *service) checkPolicy(pwd string) error {
	if ok, reasons := s.deps.Policy.Validate(pwd); !ok {
		return &PolicyError{Message: s.deps.Policy.Describe(reasons)}
	}
	return nil
}

func (s *service) hash(pwd string) (string, error) {
	h, err := password.Hash(s.deps.Hash, pwd)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// issueSession firma un par nuevo y persiste el hash del refresh (rotación:
// el anterior deja de servir).
func (s *service) issueSession(ctx context.Context, u *repository.User) (jwtx.TokenPair, error) {
	pair, err := s.deps.Issuer.Issue(u.ID, u.Email, u.AccountType)
	if err != nil {
		return jwtx.TokenPair{}, err
	}
	h := tokens.SHA256Base64URL(pair.RefreshToken)
	if err := s.deps.Users.SetRefreshTokenHash(ctx, u.ID, &h); err != nil {
		return jwtx.TokenPair{}, fmt.Errorf("persist refresh hash: %w", err)
	}
	return pair, nil
}

// sendOTP emite un código y lo manda por email (y SMS si corresponde).
// El envío es best-effort: un fallo se loguea y el flujo sigue.
func (s *service) sendOTP(ctx context.Context, kind email.Kind, u *repository.User) (string, time.Time, error) {
	code, exp, err := s.deps.OTP.Issue(ctx, u.Email)
	if err != nil {
		return "", time.Time{}, err
	}
	if s.deps.Mailer != nil && !s.deps.Mailer.SendOTP(ctx, kind, u.Email, code, s.deps.OTP.TTL()) {
		logger.From(ctx).Warn("otp email not delivered", logger.Email(u.Email), logger.String("template", string(kind)))
	}
	if kind == email.KindVerify && u.Phone != nil && *u.Phone != "" && s.deps.SMS != nil && s.deps.SMS.Enabled() {
		mins := int(s.deps.OTP.TTL().Round(time.Minute) / time.Minute)
		body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, mins)
		if !s.deps.SMS.Send(ctx, *u.Phone, body) {
			logger.From(ctx).Warn("otp sms not delivered")
		}
	}
	return code, exp, nil
}

// echo devuelve el código solo si está habilitado.
func (s *service) echo(code string) string {
	if s.deps.EchoOTP {
		return code
	}
	return ""
}

// emit publica un evento de cuenta; nunca falla el flujo.
func (s *service) emit(ctx context.Context, e events.Event) {
	if err := s.deps.Events.Publish(ctx, e); err != nil {
		logger.From(ctx).Warn("event publish failed", logger.String("type", e.Type), logger.Err(err))
	}
}

func conflictErr(err error) error {
	switch repository.ConflictField(err) {
	case "email":
		return ErrEmailExists
	case "phone":
		return ErrPhoneExists
	}
	if errors.Is(err, repository.ErrConflict) {
		return ErrEmailExists
	}
	return err
}
