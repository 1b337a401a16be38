// Package auth contiene los DTOs de los endpoints /auth.
package auth

import (
	"strings"

	"github.com/dropDatabas3/userauth/internal/validation"
)

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// RegisterRequest es el body de POST /auth/register.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = normEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *RegisterRequest) Validate() *validation.Errors {
	var e validation.Errors
	e.Check(r.FullName != "", "fullName should not be empty")
	e.Check(validation.ValidEmail(r.Email), "email must be an email")
	e.Check(r.Password != "", "password should not be empty")
	if r.Phone != "" {
		e.Check(validation.ValidPhone(r.Phone), "Phone number must be exactly 10 digits")
	}
	return &e
}

// LoginRequest es el body de POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() { r.Email = normEmail(r.Email) }

func (r *LoginRequest) Validate() *validation.Errors {
	var e validation.Errors
	e.Check(validation.ValidEmail(r.Email), "email must be an email")
	e.Check(r.Password != "", "password should not be empty")
	return &e
}

// EmailRequest es el body de resend-otp y forget-password.
type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Normalize() { r.Email = normEmail(r.Email) }

func (r *EmailRequest) Validate() *validation.Errors {
	var e validation.Errors
	if r.Email == "" {
		e.Add("Email field is required")
		return &e
	}
	e.Check(validation.ValidEmail(r.Email), "email must be an email")
	return &e
}

// VerifyOTPRequest es el body de POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = normEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyOTPRequest) Validate() *validation.Errors {
	var e validation.Errors
	if r.Email == "" {
		e.Add("Email field is required")
	} else {
		e.Check(validation.ValidEmail(r.Email), "email must be an email")
	}
	e.Check(r.OTP != "", "otp should not be empty")
	return &e
}

// ResetPasswordRequest es el body de POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = normEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *ResetPasswordRequest) Validate() *validation.Errors {
	var e validation.Errors
	if r.Email == "" {
		e.Add("Email is required")
	} else {
		e.Check(validation.ValidEmail(r.Email), "email must be an email")
	}
	e.Check(r.OTP != "", "otp should not be empty")
	e.Check(r.NewPassword != "", "newPassword should not be empty")
	return &e
}

// ChangePasswordRequest es el body de POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Normalize() {}

func (r *ChangePasswordRequest) Validate() *validation.Errors {
	var e validation.Errors
	e.Check(r.CurrentPassword != "", "currentPassword should not be empty")
	e.Check(r.NewPassword != "", "newPassword should not be empty")
	return &e
}

// RefreshRequest es el body de POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Normalize() { r.RefreshToken = strings.TrimSpace(r.RefreshToken) }

func (r *RefreshRequest) Validate() *validation.Errors {
	var e validation.Errors
	e.Check(r.RefreshToken != "", "refreshToken should not be empty")
	return &e
}

// GoogleCodeRequest es el body de POST /auth/google/login (popup de SPA).
type GoogleCodeRequest struct {
	Code string `json:"code"`
}

func (r *GoogleCodeRequest) Normalize() { r.Code = strings.TrimSpace(r.Code) }

// Validate no acumula: un code faltante es 401 en el controller.
func (r *GoogleCodeRequest) Validate() *validation.Errors { return &validation.Errors{} }

// ProfileUpdate son los campos de PATCH /auth/profile (multipart o JSON).
type ProfileUpdate struct {
	FullName   *string `json:"fullName"`
	ProfilePic *string `json:"-"`
}
