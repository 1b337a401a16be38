package router

import (
	"net/http"

	"github.com/dropDatabas3/userauth/internal/domain/types"
)

var superAdmin = []types.AccountType{types.AccountSuperAdmin}

func usersRoutes(d Deps) []Route {
	if d.Users == nil {
		return nil
	}
	u := d.Users
	return []Route{
		{Method: http.MethodPost, Pattern: "/users", Handler: u.Create, AccountTypes: superAdmin},
		{Method: http.MethodGet, Pattern: "/users", Handler: u.List, AccountTypes: superAdmin},
		{Method: http.MethodGet, Pattern: "/users/search", Handler: u.Search, AccountTypes: superAdmin},
		{Method: http.MethodPatch, Pattern: "/users/status/change/{id}", Handler: u.ToggleStatus, AccountTypes: superAdmin},

		{Method: http.MethodGet, Pattern: "/users/profile", Handler: u.Profile},
		{Method: http.MethodDelete, Pattern: "/users/profile", Handler: u.DeleteSelf},

		{Method: http.MethodGet, Pattern: "/users/{id}", Handler: u.Get, AccountTypes: superAdmin},
		{Method: http.MethodPatch, Pattern: "/users/{id}", Handler: u.Update, AccountTypes: superAdmin},
		{Method: http.MethodDelete, Pattern: "/users/{id}", Handler: u.Delete, AccountTypes: superAdmin},
	}
}
