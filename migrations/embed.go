// Package migrations holds the goose SQL migrations for every supported dialect.
package migrations

import "embed"

// FS contains one directory of migrations per dialect: sqlite and postgres.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
