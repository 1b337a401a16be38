package helpers

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Page son los parámetros de paginación ya normalizados.
type Page struct {
	Page    int
	PerPage int
}

// Offset para el store.
func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

// ParsePage lee ?page=&limit= con defaults 1/10. Valores inválidos caen al default.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Page: 1, PerPage: defaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		if n > maxPerPage {
			n = maxPerPage
		}
		p.PerPage = n
	}
	return p
}

// Pagination es el bloque de metadatos de un listado.
type Pagination struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// Paginated es el payload de un listado.
type Paginated[T any] struct {
	Success    *bool      `json:"success,omitempty"`
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPaginated arma el payload de una página.
func NewPaginated[T any](items []T, total int, p Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	last := (total + p.PerPage - 1) / p.PerPage
	return Paginated[T]{
		Items: items,
		Pagination: Pagination{
			Total:       total,
			PerPage:     p.PerPage,
			CurrentPage: p.Page,
			LastPage:    last,
		},
	}
}

// NoData es el payload de un listado sin resultados.
func NoData[T any]() Paginated[T] {
	f := false
	return Paginated[T]{
		Success:    &f,
		Items:      []T{},
		Pagination: Pagination{Total: 0, PerPage: 1, CurrentPage: 1, LastPage: 1},
	}
}
