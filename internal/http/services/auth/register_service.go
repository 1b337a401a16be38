package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

func (s *service) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)
	res, err := s.register(ctx, in)
	metrics.RecordAuth("register", err == nil)
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		return nil, err
	}
	log.Info("user registered", logger.UserID(res.User.ID))
	return res, nil
}

func (s *service) register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error) {
	in.Email = normEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	// Paso 1: unicidad, email y teléfono por separado
	if _, err := s.deps.Users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	var phone *string
	if in.Phone != "" {
		if _, err := s.deps.Users.FindByPhone(ctx, in.Phone); err == nil {
			return nil, ErrPhoneExists
		} else if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("check phone: %w", err)
		}
		phone = &in.Phone
	}

	// Paso 2: política + hash
	if err := s.checkPolicy(in.Password); err != nil {
		return nil, err
	}
	h, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	// Paso 3: alta (el índice único cubre la carrera entre el check y el insert)
	u, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		PasswordHash: &h,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        phone,
		AccountType:  types.AccountUser,
	})
	if err != nil {
		return nil, conflictErr(err)
	}

	// Paso 4: OTP de verificación
	code, exp, err := s.sendOTP(ctx, email.KindVerify, u)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.New(events.UserRegistered, u.ID, u.Email).With("provider", "password"))

	return &dto.RegisterResult{
		Message:   "Registration successful. OTP sent to email.",
		OTP:       s.echo(code),
		OTPExpire: exp,
		User:      users.NewUserView(u),
	}, nil
}
