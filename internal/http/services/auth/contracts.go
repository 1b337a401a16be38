// Package auth contiene el orquestador de autenticación: registro, login,
// OTP, reset/cambio de password, refresh con rotación, login social, logout y perfil.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	"github.com/dropDatabas3/userauth/internal/http/dto/users"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/oauth"
	"github.com/dropDatabas3/userauth/internal/otp"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

// Service define todos los flujos de auth.
type Service interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error)
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error)
	ResendOTP(ctx context.Context, email string) (*dto.OTPSentResult, error)
	VerifyOTP(ctx context.Context, in dto.VerifyOTPRequest) (*dto.SessionResult, error)
	ForgotPassword(ctx context.Context, email string) (*dto.OTPSentResult, error)
	ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) (*dto.MessageResult, error)
	ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) (*dto.MessageResult, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokensResult, error)
	SocialLogin(ctx context.Context, id oauth.Identity) (*dto.SessionResult, error)
	Logout(ctx context.Context, claims *jwtx.Claims) (*dto.MessageResult, error)
	Profile(ctx context.Context, userID string) (*users.UserView, error)
	UpdateProfile(ctx context.Context, userID string, in dto.ProfileUpdate) (*users.UserView, error)
}

// OTPMailer envía el código por email (lo implementa *email.Gateway).
type OTPMailer interface {
	SendOTP(ctx context.Context, kind email.Kind, to, code string, ttl time.Duration) bool
}

// SMSSender envía el código por SMS (lo implementa *sms.Gateway).
type SMSSender interface {
	Enabled() bool
	Send(ctx context.Context, phone, body string) bool
}

// TokenRevoker agrega el jti de un access token a la blacklist (lo implementa *revocation.Blacklist).
type TokenRevoker interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
}

// Deps contiene las dependencias del orquestador.
type Deps struct {
	Users     repository.UserRepository
	OTP       *otp.Manager
	Issuer    *jwtx.Issuer
	Blacklist TokenRevoker
	Mailer    OTPMailer
	SMS       SMSSender        // nil = sin SMS
	Events    events.Publisher // nil = Noop
	Policy    password.Policy
	Hash      password.Params
	EchoOTP   bool   // devuelve el código en la respuesta (solo dev)
	UploadDir string // para borrar fotos de perfil reemplazadas
}

// Errores de los flujos. El controller los traduce a AppError.
var (
	ErrEmailExists              = errors.New("email already exists")
	ErrPhoneExists              = errors.New("phone already exists")
	ErrWeakPassword             = errors.New("password does not satisfy policy")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountDeactivated       = errors.New("account deactivated")
	ErrPasswordLoginUnavailable = errors.New("password login not available")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidOTP               = errors.New("invalid or expired otp")
	ErrPasswordReuse            = errors.New("new password equals current password")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrSocialEmailMissing       = errors.New("social provider returned no email")
)

// PolicyError lleva el mensaje legible de la política incumplida.
// errors.Is(err, ErrWeakPassword) es true.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string        { return e.Message }
func (e *PolicyError) Is(target error) bool { return target == ErrWeakPassword }
