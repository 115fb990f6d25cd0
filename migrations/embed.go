// Package migrations embeds the goose SQL migrations so the server can
// create its schema without access to the source tree.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
