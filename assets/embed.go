// Package assets embeds the static data the binary ships with: the default
// word catalog and the SQL migrations for the history database.
package assets

import (
	"embed"
	"io"
	"io/fs"
)

//go:embed catalog.txt sql/*.sql
var FS embed.FS

// DefaultCatalog opens the embedded word catalog.
func DefaultCatalog() (io.ReadCloser, error) {
	return FS.Open("catalog.txt")
}

// Migrations returns the embedded migrations rooted at sql/.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is part of the embed pattern above, so this cannot happen.
		panic(err)
	}
	return sub
}
