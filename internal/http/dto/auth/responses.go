package auth

import (
	"time"

	"github.com/dropDatabas3/userauth/internal/http/dto/users"
)

// Los Result llevan Message fuera del JSON: el controller lo sube al sobre.

// RegisterResult es la respuesta de register. Nunca trae tokens.
type RegisterResult struct {
	Message   string         `json:"-"`
	OTP       string         `json:"otp,omitempty"` // solo con OTP_ECHO
	OTPExpire time.Time      `json:"otpExpire"`
	User      users.UserView `json:"user"`
}

// LoginResult cubre las dos ramas de login (verificado o no).
type LoginResult struct {
	Message      string         `json:"-"`
	OTPSent      bool           `json:"otpSent,omitempty"`
	OTP          string         `json:"otp,omitempty"`
	OTPExpire    *time.Time     `json:"otpExpire,omitempty"`
	Verified     bool           `json:"verified"`
	User         users.UserView `json:"user"`
	AccessToken  string         `json:"accessToken,omitempty"`
	RefreshToken string         `json:"refreshToken,omitempty"`
}

// OTPSentResult es la respuesta de resend-otp y forget-password.
type OTPSentResult struct {
	Message   string    `json:"-"`
	OTP       string    `json:"otp,omitempty"`
	OTPExpire time.Time `json:"otpExpire"`
}

// SessionResult es la respuesta con un par nuevo (verify-otp, social login).
type SessionResult struct {
	Message      string         `json:"-"`
	Verified     *bool          `json:"verified,omitempty"`
	User         users.UserView `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// TokensResult es la respuesta de refresh.
type TokensResult struct {
	Message      string `json:"-"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// MessageResult es una respuesta sin data.
type MessageResult struct {
	Message string `json:"-"`
}
