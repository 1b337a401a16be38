package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/types"
)

// User es el registro de identidad persistido.
type User struct {
	ID               string
	Email            string
	PasswordHash     *string // nil en cuentas solo-sociales
	FullName         string
	Phone            *string
	AccountType      types.AccountType
	IsEmailVerified  bool
	IsActive         bool
	RefreshTokenHash *string
	Provider         *string
	ProviderID       *string
	ProfilePic       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPassword reporta si la cuenta admite login por password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email           string
	PasswordHash    *string
	FullName        string
	Phone           *string
	AccountType     types.AccountType
	IsEmailVerified bool
	Provider        *string
	ProviderID      *string
	ProfilePic      *string
}

// UpdateUserInput contiene los campos actualizables; nil = sin cambio.
type UpdateUserInput struct {
	Email           *string
	PasswordHash    *string
	FullName        *string
	Phone           *string
	AccountType     *types.AccountType
	IsEmailVerified *bool
	IsActive        *bool
	ProfilePic      *string
}

// ListUsersFilter filtra y pagina listados.
type ListUsersFilter struct {
	AccountType types.AccountType // vacío = todos
	Search      string            // match case-insensitive sobre full_name
	Limit       int
	Offset      int
}

// UserRepository es el Credential Store.
type UserRepository interface {
	// FindByEmail busca por email (ya normalizado). ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID busca por ID. ErrNotFound si no existe.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByPhone busca por teléfono. ErrNotFound si no existe.
	FindByPhone(ctx context.Context, phone string) (*User, error)

	// Create inserta un usuario. ConflictError("email"|"phone") ante duplicados.
	Create(ctx context.Context, in CreateUserInput) (*User, error)

	// Update aplica los campos no-nil y devuelve el registro actualizado.
	Update(ctx context.Context, id string, in UpdateUserInput) (*User, error)

	// SetRefreshTokenHash reemplaza (o limpia con nil) el hash del refresh token.
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error

	// Delete elimina el usuario. ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error

	// List devuelve una página y el total que cumple el filtro.
	List(ctx context.Context, f ListUsersFilter) ([]User, int, error)
}
