// Package repository define los contratos de persistencia del dominio.
//
// Las implementaciones viven en internal/store/pg (PostgreSQL) e
// internal/store/memory (en proceso, para dev y tests). Context es siempre
// el primer parámetro y los errores de dominio están en errors.go.
package repository
