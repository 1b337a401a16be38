// Package users contiene los controllers de /users.
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/userauth/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/userauth/internal/http/services/users"
)

// UsersController maneja la administración de usuarios y el perfil propio.
type UsersController struct {
	service svc.Service
}

// NewUsersController crea el controller.
func NewUsersController(service svc.Service) *UsersController {
	return &UsersController{service: service}
}

// Create maneja POST /users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	v, err := c.service.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusCreated, "", v)
}

// List maneja GET /users?page&limit
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	page, err := c.service.List(r.Context(), helpers.ParsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", page)
}

// Search maneja GET /users/search?q&page&limit
func (c *UsersController) Search(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Search(r.Context(), r.URL.Query().Get("q"), helpers.ParsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, res.Message, res.Page)
}

// ToggleStatus maneja PATCH /users/status/change/{id}
func (c *UsersController) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

// Profile maneja GET /users/profile
func (c *UsersController) Profile(w http.ResponseWriter, r *http.Request) {
	c.get(w, r, middlewares.GetUserID(r.Context()))
}

// Get maneja GET /users/{id}
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	c.get(w, r, chi.URLParam(r, "id"))
}

func (c *UsersController) get(w http.ResponseWriter, r *http.Request, id string) {
	v, err := c.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

// Update maneja PATCH /users/{id}
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !helpers.ReadRequest(w, r, &req) {
		return
	}
	v, err := c.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

// DeleteSelf maneja DELETE /users/profile
func (c *UsersController) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	c.delete(w, r, middlewares.GetUserID(r.Context()))
}

// Delete maneja DELETE /users/{id}
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	c.delete(w, r, chi.URLParam(r, "id"))
}

func (c *UsersController) delete(w http.ResponseWriter, r *http.Request, id string) {
	v, err := c.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var pe *svc.PolicyError
	switch {
	case errors.As(err, &pe):
		httperrors.WriteError(w, httperrors.ErrValidation.WithMessage(pe.Message))
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrEmailExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithMessage("Email already exists"))
	case errors.Is(err, svc.ErrPhoneExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithMessage("Phone already exists"))
	case errors.Is(err, svc.ErrSearchQueryRequired):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Search query is required"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
