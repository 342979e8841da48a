package scanfeed

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/sonospy/movetags/model"
)

// openSourceDB lays down the minimal shape of the upstream scanner's own
// tables (scans, tags, tags_update, workvirtuals_update) — tables this
// project reads but never creates, since the scanner owns them.
func openSourceDB(t *testing.T) *dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ddl := []string{
		`create table scans (id integer primary key, path text)`,
		`create table tags (
			id text, id2 text, title text, artist text, album text, genre text,
			tracknumber text, year text, albumartist text, composer text, codec text,
			length text, size text, created text, path text, filename text, discnumber text,
			comment text, folderart text, trackart text, bitrate text, samplerate text,
			bitspersample text, channels text, mime text, lastmodified text, folderartid integer,
			trackartid integer, inserted text, lastscanned text, titlesort text, albumsort text,
			artistsort text, albumartistsort text, composersort text, coverart text, coverartid integer
		)`,
		`create table tags_update (
			id text, id2 text, title text, artist text, album text, genre text,
			tracknumber text, year text, albumartist text, composer text, codec text,
			length text, size text, created text, path text, filename text, discnumber text,
			comment text, folderart text, trackart text, bitrate text, samplerate text,
			bitspersample text, channels text, mime text, lastmodified text, folderartid integer,
			trackartid integer, inserted text, lastscanned text, titlesort text, albumsort text,
			artistsort text, albumartistsort text, composersort text, coverart text, coverartid integer,
			updateorder integer, updatetype text, scannumber integer
		)`,
		`create table workvirtuals_update (
			id text, wvfile text, plfile text, type text, occurs integer,
			artist text, title text, genre text, track text, year text,
			albumartist text, composer text, created text, discnumber text, lastmodified text,
			inserted text, lastscanned text, titlesort text, albumsort text, artistsort text,
			albumartistsort text, composersort text, cover text, coverartid integer,
			updateorder integer, updatetype text, scannumber integer
		)`,
	}
	for _, stmt := range ddl {
		_, err := db.NewQuery(stmt).WithContext(context.Background()).Execute()
		require.NoError(t, err)
	}
	return db
}

func exec(t *testing.T, db *dbx.DB, query string, params dbx.Params) {
	t.Helper()
	_, err := db.NewQuery(query).WithContext(context.Background()).Bind(params).Execute()
	require.NoError(t, err)
}

func TestPendingScans_OnlyAfterGivenID(t *testing.T) {
	db := openSourceDB(t)
	exec(t, db, `insert into scans (id, path) values ({:id}, {:path})`, dbx.Params{"id": 1, "path": "/a"})
	exec(t, db, `insert into scans (id, path) values ({:id}, {:path})`, dbx.Params{"id": 2, "path": "/b"})

	feed := New(context.Background(), db, false)
	scans, err := feed.PendingScans(1)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	require.Equal(t, 2, scans[0].ScanID)
}

func TestTagPairs_PairsInsertAndDeleteRows(t *testing.T) {
	db := openSourceDB(t)
	exec(t, db, `insert into tags_update (id, title, updateorder, updatetype, scannumber) values ({:id}, {:title}, 1, 'I', 1)`,
		dbx.Params{"id": "t1", "title": "Song"})
	exec(t, db, `insert into tags_update (id, title, updateorder, updatetype, scannumber) values ({:id}, {:title}, 0, 'D', 1)`,
		dbx.Params{"id": "t2", "title": "Gone"})

	feed := New(context.Background(), db, false)
	pairs, err := feed.TagPairs(1)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	byID := map[string]model.Pair{}
	for _, p := range pairs {
		if p.After.ID != "" {
			byID[p.After.ID] = p
		} else {
			byID[p.Before.ID] = p
		}
	}

	require.Empty(t, byID["t1"].Before.ID)
	require.Equal(t, "Song", byID["t1"].After.Title)

	require.Empty(t, byID["t2"].After.ID)
	require.Equal(t, "Gone", byID["t2"].Before.Title)
}

// TestWVPairs_SubstitutesGroupNameNotTrackTitle is the regression test for
// the column-substitution bug: workvirtuals_update's own "title" column is
// the work/virtual group's display name, never the track's title, which
// must come from the joined tags row instead.
func TestWVPairs_SubstitutesGroupNameNotTrackTitle(t *testing.T) {
	db := openSourceDB(t)
	exec(t, db, `insert into tags (id, title, album) values ({:id}, {:title}, {:album})`,
		dbx.Params{"id": "t1", "title": "Real Track Title", "album": "Real Album"})
	exec(t, db, `insert into workvirtuals_update
		(id, wvfile, plfile, type, occurs, title, updateorder, updatetype, scannumber)
		values ({:id}, 'wv1', 'pl1', 'work', 1, {:group}, 1, 'I', 1)`,
		dbx.Params{"id": "t1", "group": "Best Of"})

	feed := New(context.Background(), db, false)
	pairs, err := feed.WVPairs(1)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	after := pairs[0].After
	require.Equal(t, "Best Of", after.GroupName)
	require.Equal(t, "Real Track Title", after.Title)
	require.Equal(t, "Real Album", after.Album)
}

func TestWVPairs_DeletionJoinsAgainstTagsUpdate(t *testing.T) {
	db := openSourceDB(t)
	exec(t, db, `insert into tags_update (id, title, album, scannumber) values ({:id}, {:title}, {:album}, 1)`,
		dbx.Params{"id": "t1", "title": "Track Before Removal", "album": "Old Album"})
	exec(t, db, `insert into workvirtuals_update
		(id, wvfile, plfile, type, occurs, title, updateorder, updatetype, scannumber)
		values ({:id}, 'wv1', 'pl1', 'work', 1, {:group}, 0, 'D', 1)`,
		dbx.Params{"id": "t1", "group": "Best Of"})

	feed := New(context.Background(), db, false)
	pairs, err := feed.WVPairs(1)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	before := pairs[0].Before
	require.Equal(t, "Best Of", before.GroupName)
	require.Equal(t, "Track Before Removal", before.Title)
}
