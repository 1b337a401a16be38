package router

import "net/http"

func authRoutes(d Deps) []Route {
	if d.Auth == nil {
		return nil
	}
	a, p := d.Auth.Auth, d.Auth.Profile
	return []Route{
		{Method: http.MethodPost, Pattern: "/auth/register", Handler: a.Register, Public: true, Rate: RateLogin},
		{Method: http.MethodPost, Pattern: "/auth/login", Handler: a.Login, Public: true, Rate: RateLogin, NoStore: true},
		{Method: http.MethodPost, Pattern: "/auth/resend-otp", Handler: a.ResendOTP, Public: true, Rate: RateOTP},
		{Method: http.MethodPost, Pattern: "/auth/verify-otp", Handler: a.VerifyOTP, Public: true, NoStore: true},
		{Method: http.MethodPost, Pattern: "/auth/forget-password", Handler: a.ForgotPassword, Public: true, Rate: RateOTP},
		{Method: http.MethodPost, Pattern: "/auth/reset-password", Handler: a.ResetPassword, Public: true},
		// el refresh token viaja en el body; el access puede estar vencido
		{Method: http.MethodPost, Pattern: "/auth/refresh", Handler: a.Refresh, Public: true, NoStore: true},

		{Method: http.MethodPost, Pattern: "/auth/change-password", Handler: a.ChangePassword},
		{Method: http.MethodPost, Pattern: "/auth/logout", Handler: a.Logout},
		{Method: http.MethodGet, Pattern: "/auth/profile", Handler: p.Get},
		{Method: http.MethodPatch, Pattern: "/auth/profile", Handler: p.Update},
	}
}
