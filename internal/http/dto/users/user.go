// Package users contiene los DTOs del módulo de usuarios y la proyección pública UserView.
package users

import (
	"time"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
)

// UserView es la proyección pública de un usuario: nunca incluye hashes.
type UserView struct {
	ID              string            `json:"id"`
	Email           string            `json:"email"`
	FullName        string            `json:"fullName"`
	Phone           *string           `json:"phone"`
	AccountType     types.AccountType `json:"accountType"`
	IsEmailVerified bool              `json:"isEmailVerified"`
	IsActive        bool              `json:"isActive"`
	Provider        *string           `json:"provider"`
	ProviderID      *string           `json:"providerId"`
	ProfilePic      *string           `json:"profilePic"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// NewUserView proyecta u.
func NewUserView(u *repository.User) UserView {
	return UserView{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           u.Phone,
		AccountType:     u.AccountType,
		IsEmailVerified: u.IsEmailVerified,
		IsActive:        u.IsActive,
		Provider:        u.Provider,
		ProviderID:      u.ProviderID,
		ProfilePic:      u.ProfilePic,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// SearchItem es la fila reducida que devuelve la búsqueda.
type SearchItem struct {
	ID       string  `json:"id"`
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	IsActive bool    `json:"isActive"`
}

// NewSearchItem proyecta u.
func NewSearchItem(u *repository.User) SearchItem {
	return SearchItem{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone, IsActive: u.IsActive}
}

// StatusView es la respuesta del toggle de estado.
type StatusView struct {
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

// DeletedView es la respuesta de los DELETE.
type DeletedView struct {
	ID string `json:"id"`
}
