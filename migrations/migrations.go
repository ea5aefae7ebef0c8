// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS exposes the migration files to the iofs source driver.
//
//go:embed *.sql
var FS embed.FS
