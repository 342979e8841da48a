package persistence

import (
	"fmt"

	"github.com/pocketbase/dbx"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to a sqlite3 database at path through dbx, the builder
// every repository in this package expects.
func Open(path string) (*dbx.DB, error) {
	db, err := dbx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return db, nil
}
