package finalize

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/sonospy/movetags/core/schema"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

func newTestDB(t *testing.T) *dbx.DB {
	t.Helper()
	db, err := persistence.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Bootstrap(context.Background(), db.DB()))
	return db
}

func exec(t *testing.T, db *dbx.DB, query string, params dbx.Params) {
	t.Helper()
	_, err := db.NewQuery(query).WithContext(context.Background()).Bind(params).Execute()
	require.NoError(t, err)
}

func TestAfterBatch_IgnoresMissingPlaylistsTable(t *testing.T) {
	db := newTestDB(t)
	params := persistence.NewParamsRepository(context.Background(), db)
	f := New(context.Background(), db, db, params)

	require.NoError(t, f.AfterBatch())
}

func TestAfterBatch_FixesUpPlaylistTrackRowid(t *testing.T) {
	db := newTestDB(t)
	exec(t, db, `create table playlists (track_id text, track_rowid integer)`, nil)
	exec(t, db, `insert into tracks (id, title) values ({:id}, 'Song')`, dbx.Params{"id": "t1"})
	exec(t, db, `insert into playlists (track_id, track_rowid) values ({:id}, 0)`, dbx.Params{"id": "t1"})

	params := persistence.NewParamsRepository(context.Background(), db)
	f := New(context.Background(), db, db, params)
	require.NoError(t, f.AfterBatch())

	var row struct {
		Rowid int `db:"track_rowid"`
	}
	require.NoError(t, db.NewQuery(`select track_rowid from playlists where track_id = 't1'`).WithContext(context.Background()).One(&row))
	require.NotZero(t, row.Rowid)
}

func TestAfterRun_DeletesProcessedScansAndAdvancesParams(t *testing.T) {
	db := newTestDB(t)
	exec(t, db, `create table scans (id integer, path text)`, nil)
	exec(t, db, `create table tags_update (id text, scannumber integer)`, nil)
	exec(t, db, `create table workvirtuals_update (id text, scannumber integer)`, nil)

	exec(t, db, `insert into scans (id, path) values (1, '/a')`, nil)
	exec(t, db, `insert into tags_update (id, scannumber) values ('t1', 1)`, nil)
	exec(t, db, `insert into workvirtuals_update (id, scannumber) values ('t1', 1)`, nil)

	params := persistence.NewParamsRepository(context.Background(), db)
	f := New(context.Background(), db, db, params)

	err := f.AfterRun([]model.ScanBatch{{ScanID: 1, ScanPath: "/a"}}, 5)
	require.NoError(t, err)

	var row struct {
		N int `db:"n"`
	}
	require.NoError(t, db.NewQuery(`select count(*) as n from scans`).WithContext(context.Background()).One(&row))
	require.Zero(t, row.N)
	require.NoError(t, db.NewQuery(`select count(*) as n from tags_update`).WithContext(context.Background()).One(&row))
	require.Zero(t, row.N)
	require.NoError(t, db.NewQuery(`select count(*) as n from workvirtuals_update`).WithContext(context.Background()).One(&row))
	require.Zero(t, row.N)

	p, err := params.Get()
	require.NoError(t, err)
	require.Equal(t, 5, p.Lastscanstamp)
	require.Equal(t, 1, p.Lastscanid)
}

func TestAfterRun_NoopOnEmptyProcessedList(t *testing.T) {
	db := newTestDB(t)
	params := persistence.NewParamsRepository(context.Background(), db)
	f := New(context.Background(), db, db, params)

	require.NoError(t, f.AfterRun(nil, 0))

	p, err := params.Get()
	require.NoError(t, err)
	require.Zero(t, p.Lastscanstamp)
}
