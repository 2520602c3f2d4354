// Package migrations embeds the SQL migrations owned by this service.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
