// Package migrations holds the bridge's SQL schema, embedded into the binary.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
