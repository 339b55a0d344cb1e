package migrations

import "embed"

// FS holds the goose migrations, one directory per database engine.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
