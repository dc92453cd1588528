// Package migrations embeds the SQLite schema of the claim service.
package migrations

import "embed"

// FS holds the migration files.
//
//go:embed *.sql
var FS embed.FS
