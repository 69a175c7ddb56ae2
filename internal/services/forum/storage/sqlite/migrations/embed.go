// Package migrations contains embedded SQL migrations for the SQLite ledger.
package migrations

import "embed"

//go:embed ledger/*.sql
var LedgerFS embed.FS
