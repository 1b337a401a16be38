package helpers

import (
	"net/http"

	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/validation"
)

// Request es un DTO de entrada que se normaliza y valida antes del service.
type Request interface {
	Normalize()
	Validate() *validation.Errors
}

// ReadRequest decodifica, normaliza y valida req. Devuelve false si ya
// escribió el error HTTP (400 con el primer mensaje y el resto en detail).
func ReadRequest(w http.ResponseWriter, r *http.Request, req Request) bool {
	if !ReadJSON(w, r, req) {
		return false
	}
	req.Normalize()
	if verr := req.Validate(); verr != nil && !verr.Empty() {
		httperrors.WriteError(w, ValidationError(verr))
		return false
	}
	return true
}

// ValidationError arma el AppError 400 de un acumulador no vacío.
func ValidationError(verr *validation.Errors) *httperrors.AppError {
	msgs := verr.Messages()
	return httperrors.ErrValidation.WithMessage(msgs[0]).WithDetail(verr.Error())
}
