// Package migrations embeds the schema migrations for each supported
// database dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

// Migration files are bundled at compile time and named NNN_description.sql.
// Files apply in lexical order; an applied file must never change.
//
//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// ForDriver returns the migrations for a database/sql driver name, rooted
// at the dialect directory.
func ForDriver(driver string) (fs.FS, error) {
	var dir string
	switch driver {
	case "sqlite3":
		dir = "sqlite"
	case "postgres":
		dir = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return fs.Sub(files, dir)
}
