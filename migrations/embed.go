// Package migrations embeds the SQL schema of the haptics database.
//
// Pass FS to database.DB.Migrate; files sit at the root of the embedded
// filesystem.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
