package auth

import (
	"context"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

func (s *service) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)
	in.Email = normEmail(in.Email)

	u, err := s.deps.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		metrics.RecordAuth("login", false)
		if repository.IsNotFound(err) {
			log.Debug("user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	log = log.With(logger.UserID(u.ID))

	if !u.IsActive {
		log.Info("user deactivated")
		metrics.RecordAuth("login", false)
		return nil, ErrAccountDeactivated
	}
	if !u.HasPassword() {
		metrics.RecordAuth("login", false)
		return nil, ErrPasswordLoginUnavailable
	}
	if !password.Verify(in.Password, *u.PasswordHash) {
		log.Debug("password check failed")
		metrics.RecordAuth("login", false)
		return nil, ErrInvalidCredentials
	}
	s.maybeRehash(ctx, u, in.Password)

	// Email sin verificar: mandamos OTP y no emitimos tokens
	if !u.IsEmailVerified {
		code, exp, err := s.sendOTP(ctx, email.KindVerify, u)
		if err != nil {
			return nil, err
		}
		log.Info("login pending email verification")
		return &dto.LoginResult{
			Message:   "Email not verified. OTP sent.",
			OTPSent:   true,
			OTP:       s.echo(code),
			OTPExpire: &exp,
			Verified:  false,
			User:      users.NewUserView(u),
		}, nil
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuth("login", true)
	s.emit(ctx, events.New(events.UserLoggedIn, u.ID, u.Email).With("method", "password"))
	log.Info("login ok")

	return &dto.LoginResult{
		Message:      "Login successful",
		Verified:     true,
		User:         users.NewUserView(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// maybeRehash actualiza hashes con parámetros viejos. Best-effort.
func (s *service) maybeRehash(ctx context.Context, u *repository.User, plain string) {
	if !password.NeedsRehash(s.deps.Hash, *u.PasswordHash) {
		return
	}
	h, err := s.hash(plain)
	if err != nil {
		return
	}
	if _, err := s.deps.Users.Update(ctx, u.ID, repository.UpdateUserInput{PasswordHash: &h}); err != nil {
		logger.From(ctx).Warn("password rehash failed", logger.Err(err))
	}
}
