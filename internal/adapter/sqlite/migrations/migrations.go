// Package migrations embeds the versioned SQLite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
