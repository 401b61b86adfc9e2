// Package migrations embeds the Postgres schema migrations. Files are named
// NNN_description.sql and applied in lexical order by db.Migrate.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
