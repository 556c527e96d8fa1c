// Package migrations holds the PostgreSQL schema, embedded so the server
// and the migrate tool can apply it without the source tree.
package migrations

import "embed"

// FS contains every NNNNNN_name.{up,down}.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
