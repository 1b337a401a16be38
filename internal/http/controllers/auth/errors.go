package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	svc "github.com/dropDatabas3/userauth/internal/http/services/auth"
)

// handleServiceError traduce los errores del service al sobre HTTP.
// Los mensajes vagos (credenciales, refresh) son intencionales.
func handleServiceError(w http.ResponseWriter, err error) {
	var pe *svc.PolicyError
	switch {
	case errors.As(err, &pe):
		httperrors.WriteError(w, httperrors.ErrValidation.WithMessage(pe.Message))

	case errors.Is(err, svc.ErrEmailExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithMessage("Email already exists"))

	case errors.Is(err, svc.ErrPhoneExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithMessage("Phone already exists"))

	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	case errors.Is(err, svc.ErrAccountDeactivated):
		httperrors.WriteError(w, httperrors.ErrAccountDeactivated)

	case errors.Is(err, svc.ErrPasswordLoginUnavailable):
		httperrors.WriteError(w, httperrors.ErrPasswordLoginUnavailable)

	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)

	case errors.Is(err, svc.ErrInvalidOTP):
		httperrors.WriteError(w, httperrors.ErrInvalidOTP)

	case errors.Is(err, svc.ErrPasswordReuse):
		httperrors.WriteError(w, httperrors.ErrPasswordReuse)

	case errors.Is(err, svc.ErrCurrentPasswordIncorrect):
		httperrors.WriteError(w, httperrors.ErrCurrentPasswordIncorrect)

	case errors.Is(err, svc.ErrInvalidRefreshToken):
		httperrors.WriteError(w, httperrors.ErrInvalidRefreshToken)

	case errors.Is(err, svc.ErrSocialEmailMissing):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Email not provided by social provider"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
