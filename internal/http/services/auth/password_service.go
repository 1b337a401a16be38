package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/otp"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

func (s *service) ForgotPassword(ctx context.Context, addr string) (*dto.OTPSentResult, error) {
	u, err := s.findUser(ctx, normEmail(addr))
	if err != nil {
		return nil, err
	}
	code, exp, err := s.sendOTP(ctx, email.KindReset, u)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("reset otp issued", logger.Component("auth.password"), logger.UserID(u.ID))
	return &dto.OTPSentResult{
		Message:   "OTP sent to " + u.Email,
		OTP:       s.echo(code),
		OTPExpire: exp,
	}, nil
}

// ResetPassword valida el OTP sin consumirlo, chequea reuso y política, y
// recién ahí lo consume. Un reset rechazado por reuso deja el código vigente.
func (s *service) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) (*dto.MessageResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ResetPassword"),
	)
	addr := normEmail(in.Email)

	if err := s.deps.OTP.Check(ctx, addr, in.OTP); err != nil {
		return nil, otpErr(err)
	}
	u, err := s.findUser(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !u.HasPassword() {
		return nil, ErrPasswordLoginUnavailable
	}
	if password.Verify(in.NewPassword, *u.PasswordHash) {
		return nil, ErrPasswordReuse
	}
	if err := s.checkPolicy(in.NewPassword); err != nil {
		return nil, err
	}
	h, err := s.hash(in.NewPassword)
	if err != nil {
		return nil, err
	}

	// Consumo: si otro request lo usó entre Check y acá, este pierde.
	if err := s.deps.OTP.Verify(ctx, addr, in.OTP); err != nil {
		return nil, otpErr(err)
	}
	if _, err := s.deps.Users.Update(ctx, u.ID, repository.UpdateUserInput{PasswordHash: &h}); err != nil {
		return nil, fmt.Errorf("persist password: %w", err)
	}
	// Las sesiones vivas no sobreviven al reset
	if err := s.deps.Users.SetRefreshTokenHash(ctx, u.ID, nil); err != nil {
		log.Warn("clear refresh hash failed", logger.Err(err))
	}

	metrics.RecordAuth("reset_password", true)
	s.emit(ctx, events.New(events.UserPasswordReset, u.ID, u.Email))
	log.Info("password reset", logger.UserID(u.ID))
	return &dto.MessageResult{Message: "Password reset successfully"}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) (*dto.MessageResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ChangePassword"),
		logger.UserID(userID),
	)
	u, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.HasPassword() {
		return nil, ErrPasswordLoginUnavailable
	}
	if !password.Verify(in.CurrentPassword, *u.PasswordHash) {
		log.Debug("current password mismatch")
		return nil, ErrCurrentPasswordIncorrect
	}
	if in.NewPassword == in.CurrentPassword {
		return nil, ErrPasswordReuse
	}
	if err := s.checkPolicy(in.NewPassword); err != nil {
		return nil, err
	}
	h, err := s.hash(in.NewPassword)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Users.Update(ctx, u.ID, repository.UpdateUserInput{PasswordHash: &h}); err != nil {
		return nil, fmt.Errorf("persist password: %w", err)
	}

	s.emit(ctx, events.New(events.UserPasswordChanged, u.ID, u.Email))
	log.Info("password changed")
	return &dto.MessageResult{Message: "Password Change Successfully."}, nil
}

func otpErr(err error) error {
	if errors.Is(err, otp.ErrInvalidOrExpired) {
		return ErrInvalidOTP
	}
	return err
}
