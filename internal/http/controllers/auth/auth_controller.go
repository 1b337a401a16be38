package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/userauth/internal/http/services/auth"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// AuthController maneja registro, login, OTP, passwords y sesión.
type AuthController struct {
	service svc.Service
}

// NewAuthController crea el controller.
func NewAuthController(service svc.Service) *AuthController {
	return &AuthController{service: service}
}

// Register maneja POST /auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// Login maneja POST /auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// ResendOTP maneja POST /auth/resend-otp
func (c *AuthController) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.ResendOTP(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// VerifyOTP maneja POST /auth/verify-otp
func (c *AuthController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.VerifyOTP(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// ForgotPassword maneja POST /auth/forget-password
func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// ResetPassword maneja POST /auth/reset-password
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.ResetPassword(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, nil)
}

// ChangePassword maneja POST /auth/change-password (autenticado).
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	var req dto.ChangePasswordRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.ChangePassword(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, nil)
}

// Refresh maneja POST /auth/refresh
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	res, err := c.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, res)
}

// Logout maneja POST /auth/logout. Revoca el access token que pasó el Guard.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middlewares.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	res, err := c.service.Logout(ctx, claims)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, res.Message, nil)
}
