package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/otp"
)

func (s *service) ResendOTP(ctx context.Context, addr string) (*dto.OTPSentResult, error) {
	u, err := s.findUser(ctx, normEmail(addr))
	if err != nil {
		return nil, err
	}
	code, exp, err := s.sendOTP(ctx, email.KindVerify, u)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("otp resent", logger.Component("auth.otp"), logger.UserID(u.ID))
	return &dto.OTPSentResult{
		Message:   "OTP sent successfully to your email address",
		OTP:       s.echo(code),
		OTPExpire: exp,
	}, nil
}

func (s *service) VerifyOTP(ctx context.Context, in dto.VerifyOTPRequest) (*dto.SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.otp"),
		logger.Op("VerifyOTP"),
	)
	addr := normEmail(in.Email)

	u, err := s.findUser(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := s.deps.OTP.Verify(ctx, addr, in.OTP); err != nil {
		metrics.RecordAuth("verify_otp", false)
		if errors.Is(err, otp.ErrInvalidOrExpired) {
			log.Debug("otp rejected", logger.UserID(u.ID))
			return nil, ErrInvalidOTP
		}
		return nil, err
	}

	if !u.IsEmailVerified {
		t := true
		u, err = s.deps.Users.Update(ctx, u.ID, repository.UpdateUserInput{IsEmailVerified: &t})
		if err != nil {
			return nil, fmt.Errorf("mark verified: %w", err)
		}
		s.emit(ctx, events.New(events.UserVerified, u.ID, u.Email))
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuth("verify_otp", true)
	log.Info("otp verified", logger.UserID(u.ID))

	verified := true
	return &dto.SessionResult{
		Message:      "OTP verified successfully",
		Verified:     &verified,
		User:         users.NewUserView(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
