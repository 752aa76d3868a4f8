// Package migrations embeds the versioned schema files for every storage backend.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
