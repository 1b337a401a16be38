// Package errors define AppError y la escritura del sobre de error HTTP.
package errors

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// errorResponse es el sobre de falla: mismo shape que el de éxito, sin data.
type errorResponse struct {
	Success    bool      `json:"success"`
	StatusCode int       `json:"statusCode"`
	Message    string    `json:"message"`
	Error      errorBody `json:"error"`
	Timestamp  string    `json:"timestamp"`
}

// WriteError escribe el sobre de error. La causa original nunca se serializa;
// los 5xx se loguean con ella.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			logger.String("code", appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}

	resp := errorResponse{
		Success:    false,
		StatusCode: appErr.HTTPStatus,
		Message:    appErr.Message,
		Error:      errorBody{Code: appErr.Code, Detail: appErr.Detail},
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
