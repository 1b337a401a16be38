package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/oauth"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	tokens "github.com/dropDatabas3/userauth/internal/security/token"
)

// Refresh rota el par. Cualquier falla se reporta igual (ErrInvalidRefreshToken)
// para no filtrar si el usuario existe o si el token ya fue rotado.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*dto.TokensResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)
	claims, err := s.deps.Issuer.VerifyRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		log.Debug("refresh token rejected", logger.Err(err))
		metrics.RecordAuth("refresh", false)
		return nil, ErrInvalidRefreshToken
	}
	u, err := s.deps.Users.FindByEmail(ctx, normEmail(claims.Email))
	if err != nil {
		metrics.RecordAuth("refresh", false)
		if !repository.IsNotFound(err) {
			log.Error("refresh user lookup failed", logger.Err(err))
		}
		return nil, ErrInvalidRefreshToken
	}
	if u.RefreshTokenHash == nil || !tokens.MatchesHash(refreshToken, *u.RefreshTokenHash) || !u.IsActive {
		log.Info("refresh token not current", logger.UserID(u.ID))
		metrics.RecordAuth("refresh", false)
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		log.Error("refresh rotation failed", logger.UserID(u.ID), logger.Err(err))
		metrics.RecordAuth("refresh", false)
		return nil, ErrInvalidRefreshToken
	}
	metrics.RecordAuth("refresh", true)
	return &dto.TokensResult{
		Message:      "Token refreshed successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// SocialLogin recibe una identidad ya verificada por el proveedor.
func (s *service) SocialLogin(ctx context.Context, id oauth.Identity) (*dto.SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.social"),
		logger.Op("SocialLogin"),
		logger.Provider(id.Provider),
	)
	addr := normEmail(id.Email)
	if addr == "" {
		metrics.RecordAuth("social_login", false)
		return nil, ErrSocialEmailMissing
	}

	u, err := s.deps.Users.FindByEmail(ctx, addr)
	switch {
	case err == nil:
		if !u.IsActive {
			metrics.RecordAuth("social_login", false)
			return nil, ErrAccountDeactivated
		}
	case repository.IsNotFound(err):
		u, err = s.createSocialUser(ctx, addr, id)
		if err != nil {
			return nil, err
		}
		log.Info("social user created", logger.UserID(u.ID))
		s.emit(ctx, events.New(events.UserRegistered, u.ID, u.Email).With("provider", id.Provider))
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuth("social_login", true)
	s.emit(ctx, events.New(events.UserLoggedIn, u.ID, u.Email).With("method", id.Provider))

	verified := true
	return &dto.SessionResult{
		Message:      "Registration & Login successful",
		Verified:     &verified,
		User:         users.NewUserView(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *service) createSocialUser(ctx context.Context, addr string, id oauth.Identity) (*repository.User, error) {
	in := repository.CreateUserInput{
		Email:           addr,
		FullName:        strings.TrimSpace(id.FullName),
		AccountType:     types.AccountUser,
		IsEmailVerified: true,
	}
	if id.Provider != "" {
		p := id.Provider
		in.Provider = &p
	}
	if id.ProviderID != "" {
		pid := id.ProviderID
		in.ProviderID = &pid
	}
	if id.Picture != "" {
		pic := id.Picture
		in.ProfilePic = &pic
	}
	u, err := s.deps.Users.Create(ctx, in)
	if err != nil {
		return nil, conflictErr(err)
	}
	return u, nil
}

// Logout revoca el access token presentado (su jti) hasta su expiración natural.
// Idempotente: revocar dos veces deja la misma entrada.
func (s *service) Logout(ctx context.Context, claims *jwtx.Claims) (*dto.MessageResult, error) {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.deps.Blacklist.Add(ctx, claims.ID, exp); err != nil {
		return nil, fmt.Errorf("revoke token: %w", err)
	}
	s.emit(ctx, events.New(events.UserLoggedOut, claims.UserID(), claims.Email))
	logger.From(ctx).Info("logged out", logger.Component("auth.session"), logger.UserID(claims.UserID()))
	return &dto.MessageResult{Message: "Logged out successfully"}, nil
}
