// Package users contiene el service de administración de usuarios y el
// perfil propio (GET/DELETE /users/profile).
package users

import (
	"context"
	"errors"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/users"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

// Service define las operaciones sobre usuarios.
type Service interface {
	Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserView, error)
	List(ctx context.Context, p helpers.Page) (helpers.Paginated[dto.UserView], error)
	Search(ctx context.Context, q string, p helpers.Page) (*SearchResult, error)
	ToggleStatus(ctx context.Context, id string) (*dto.StatusView, error)
	Get(ctx context.Context, id string) (*dto.UserView, error)
	Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserView, error)
	Delete(ctx context.Context, id string) (*dto.DeletedView, error)
}

// SearchResult lleva el mensaje del sobre aparte de la página.
type SearchResult struct {
	Message string
	Page    helpers.Paginated[dto.SearchItem]
}

// Deps del service.
type Deps struct {
	Users     repository.UserRepository
	Policy    password.Policy
	Hash      password.Params
	UploadDir string
}

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrPhoneExists         = errors.New("phone already exists")
	ErrSearchQueryRequired = errors.New("search query is required")
	ErrWeakPassword        = errors.New("password does not satisfy policy")
)

// PolicyError lleva el mensaje legible. errors.Is(err, ErrWeakPassword) es true.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string        { return e.Message }
func (e *PolicyError) Is(target error) bool { return target == ErrWeakPassword }
