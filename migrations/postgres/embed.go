// Package migrations embebe los archivos SQL de PostgreSQL.
package migrations

import "embed"

// FS contiene los pares NNNN_name_up.sql / NNNN_name_down.sql.
//
//go:embed *.sql
var FS embed.FS
