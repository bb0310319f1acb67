package migrations

import "embed"

// FS contains embedded SQLite migrations for measurement storage.
//
//go:embed *.sql
var FS embed.FS
