package migrations

import "embed"

// FS contains embedded SQLite migrations of the card ledger.
//
//go:embed *.sql
var FS embed.FS
