// Package migrations embeds the SQL schema applied by `primavera migrate`.
package migrations

import "embed"

// Files holds every migration in lexical order.
//
//go:embed *.sql
var Files embed.FS
