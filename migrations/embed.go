// Package migrations embeds the canonical PostgreSQL schema.
package migrations

import "embed"

// FS holds the numbered golang-migrate files
//
//go:embed *.sql
var FS embed.FS
