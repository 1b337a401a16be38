package users

import (
	"strings"

	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/validation"
)

// CreateUserRequest es el body de POST /users.
type CreateUserRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	AccountType string `json:"accountType,omitempty"`
}

// Normalize recorta espacios y pasa el email a minúsculas.
func (r *CreateUserRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.AccountType = strings.TrimSpace(r.AccountType)
}

// Validate chequea formato. La política de password la aplica el service.
func (r *CreateUserRequest) Validate() *validation.Errors {
	var e validation.Errors
	e.Check(r.FullName != "", "fullName should not be empty")
	e.Check(validation.ValidEmail(r.Email), "email must be an email")
	e.Check(validation.ValidPhone(r.Phone), "Phone number must be exactly 10 digits")
	e.Check(r.Password != "", "password should not be empty")
	if r.AccountType != "" {
		_, ok := types.ParseAccountType(r.AccountType)
		e.Check(ok, "accountType must be one of the following values: SUPERADMIN, USER")
	}
	return &e
}

// UpdateUserRequest es el body de PATCH /users/{id}. Campos ausentes no cambian.
type UpdateUserRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// Normalize recorta espacios; un password vacío se ignora.
func (r *UpdateUserRequest) Normalize() {
	trim(&r.FullName)
	trim(&r.Email)
	trim(&r.Phone)
	if r.Email != nil {
		s := strings.ToLower(*r.Email)
		r.Email = &s
	}
	if r.Password != nil && strings.TrimSpace(*r.Password) == "" {
		r.Password = nil
	}
}

// Validate chequea formato de los campos presentes.
func (r *UpdateUserRequest) Validate() *validation.Errors {
	var e validation.Errors
	if r.FullName != nil {
		e.Check(*r.FullName != "", "fullName should not be empty")
	}
	if r.Email != nil {
		e.Check(validation.ValidEmail(*r.Email), "email must be an email")
	}
	if r.Phone != nil {
		e.Check(validation.ValidPhone(*r.Phone), "Phone number must be exactly 10 digits")
	}
	return &e
}

func trim(p **string) {
	if *p == nil {
		return
	}
	s := strings.TrimSpace(**p)
	*p = &s
}
