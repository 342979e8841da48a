package schema

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/bradleyjkemp/cupaloy/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`select count(*) from sqlite_master where type='table' and name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestBootstrap_CreatesAllTables(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Bootstrap(context.Background(), db))

	for _, table := range []string{"params", "tracks", "albums", "albumsonly", "Artist", "Albumartist", "Composer", "Genre", "TrackNumbers"} {
		assert.True(t, tableExists(t, db, table), "expected table %s to exist", table)
	}
}

func TestBootstrap_IsIdempotent(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Bootstrap(context.Background(), db))
	require.NoError(t, Bootstrap(context.Background(), db))
	assert.True(t, tableExists(t, db, "tracks"))
}

func TestBootstrap_SeedsIdBands(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Bootstrap(context.Background(), db))

	var seq int
	err := db.QueryRow(`select seq from sqlite_sequence where name='Artist'`).Scan(&seq)
	require.NoError(t, err)
	assert.Equal(t, 100000000, seq)
}

func TestRegenerate_DropsAndRecreatesEmptySchema(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Bootstrap(context.Background(), db))

	_, err := db.Exec(`insert into tracks (id, title) values ('t1', 'Song')`)
	require.NoError(t, err)

	require.NoError(t, Regenerate(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(`select count(*) from tracks`).Scan(&n))
	assert.Zero(t, n)
	assert.True(t, tableExists(t, db, "tracks"))

	var seq int
	require.NoError(t, db.QueryRow(`select seq from sqlite_sequence where name='Artist'`).Scan(&seq))
	assert.Equal(t, 100000000, seq)
}

// TestBootstrap_TableSnapshot pins the set of tables Bootstrap produces so a
// migration change shows up as a snapshot diff in review instead of silently
// drifting.
func TestBootstrap_TableSnapshot(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Bootstrap(context.Background(), db))

	rows, err := db.Query(`select name from sqlite_master where type = 'table' and name != 'sqlite_sequence'`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	sort.Strings(names)

	cupaloy.SnapshotT(t, strings.Join(names, ","))
}
