// Package migrations embeds the goose migration files for every supported
// dialect. Each dialect has its own directory; the files are applied in
// version order by sqlstore.Migrate.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
