package sync

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/sonospy/movetags/conf"
	"github.com/sonospy/movetags/core/rollup"
	"github.com/sonospy/movetags/core/schema"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

// testEnv bundles a fresh in-memory target database and the synchronizer
// wired against it, mirroring the wiring cmd/movetags does for a real run.
type testEnv struct {
	t    *testing.T
	db   *dbx.DB
	sync *Synchronizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := persistence.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, schema.Bootstrap(context.Background(), db.DB()))

	cfg := testConfig()

	tracks := persistence.NewTrackRepository(context.Background(), db)
	albums := persistence.NewAlbumRepository(context.Background(), db)
	albumsonly := persistence.NewAlbumsonlyRepository(context.Background(), db)
	cross := persistence.NewCrossrefRepository(context.Background(), db)
	artist := persistence.NewEntityRepository(context.Background(), db, model.KindArtist)
	albumartist := persistence.NewEntityRepository(context.Background(), db, model.KindAlbumartist)
	composer := persistence.NewEntityRepository(context.Background(), db, model.KindComposer)
	genre := persistence.NewEntityRepository(context.Background(), db, model.KindGenre)

	rollupSyncer := rollup.New(context.Background(), cfg, albums, albumsonly, cross)
	s := New(context.Background(), cfg, tracks, albums, albumsonly, cross, artist, albumartist, composer, genre, rollupSyncer)

	return &testEnv{t: t, db: db, sync: s}
}

func testConfig() *conf.Config {
	return &conf.Config{
		TheProcessing:      conf.TheRemove,
		IncludeAlbum:       conf.IncludeAll,
		IncludeArtist:      conf.IncludeAll,
		IncludeAlbumartist: conf.IncludeAll,
		IncludeComposer:    conf.IncludeAll,
		IncludeGenre:       conf.IncludeAll,
		LookupNameDict:     map[string]string{},
		WorkFormats: []conf.NamedFormat{
			{Name: "_DEFAULT_WORK", Template: `"%s - %s - %s" % (composer, work, artist)`, Albumtype: 200},
		},
		VirtualFormats: []conf.NamedFormat{
			{Name: "_DEFAULT_VIRTUAL", Template: `"%s" % (virtual)`, Albumtype: 100},
		},
		WVLookup: map[string]int{"_ALBUM": 10, "_DEFAULT_WORK": 200, "_DEFAULT_VIRTUAL": 100},
	}
}

func (e *testEnv) scalar(query string) int {
	e.t.Helper()
	var row struct {
		N int `db:"n"`
	}
	err := e.db.NewQuery(query).WithContext(context.Background()).One(&row)
	require.NoError(e.t, err)
	return row.N
}

func baseRow(id, title, album, artist, tracknumber string) model.TagRow {
	return model.TagRow{
		ID: id, ID2: id + "-2",
		Title: title, Album: album, Artist: artist, Tracknumber: tracknumber,
		Albumartist: artist, Composer: "Composer A", Genre: "Rock",
		Year: "2001", Path: "/music/" + id, Filename: id + ".flac",
		Created: "100", Lastmodified: "100", Inserted: "100",
		Updatetype: model.Insert,
	}
}

func TestProcessPair_InsertCreatesTrackAlbumAndBridges(t *testing.T) {
	env := newTestEnv(t)

	row := baseRow("t1", "Song One", "Album A", "Artist A", "1")
	err := env.sync.ProcessPair(model.Pair{After: row})
	require.NoError(t, err)

	require.Equal(t, 1, env.scalar(`select count(*) as n from tracks where id = 't1'`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from albums where albumlist = 'Album A'`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from Artist where artist = 'Artist A'`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from ArtistAlbumTrack where track_id = 't1'`))
}

func TestProcessBatch_RollsUpAlbumsonlyAfterInsert(t *testing.T) {
	env := newTestEnv(t)

	row := baseRow("t1", "Song One", "Album A", "Artist A", "1")
	err := env.sync.ProcessBatch([]model.Pair{{After: row}}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, env.scalar(`select count(*) as n from albumsonly where albumlist = 'Album A'`))
}

func TestProcessPair_DeleteLastTrackRemovesAlbum(t *testing.T) {
	env := newTestEnv(t)

	row := baseRow("t1", "Song One", "Album A", "Artist A", "1")
	require.NoError(t, env.sync.ProcessBatch([]model.Pair{{After: row}}, nil))
	require.Equal(t, 1, env.scalar(`select count(*) as n from albums where albumlist = 'Album A'`))

	require.NoError(t, env.sync.ProcessBatch([]model.Pair{{Before: row}}, nil))

	require.Equal(t, 0, env.scalar(`select count(*) as n from tracks where id = 't1'`))
	require.Equal(t, 0, env.scalar(`select count(*) as n from albums where albumlist = 'Album A'`))
	require.Equal(t, 0, env.scalar(`select count(*) as n from albumsonly where albumlist = 'Album A'`))
	require.Equal(t, 0, env.scalar(`select count(*) as n from Artist where artist = 'Artist A'`))
}

// TestProcessPair_DuplicateSuffixSurvivesNonKeyUpdate is the regression
// test for the bug a non-key-changing update used to have: recomputing
// Duplicate from scratch after deleting the row being updated undercounted
// the collision by one, since that row was itself the only other
// contributor to the key.
func TestProcessPair_DuplicateSuffixSurvivesNonKeyUpdate(t *testing.T) {
	env := newTestEnv(t)

	first := baseRow("t1", "Song One", "Album A", "Artist A", "1")
	second := baseRow("t2", "Song One", "Album A", "Artist A", "2")
	require.NoError(t, env.sync.ProcessPair(model.Pair{After: first}))
	require.NoError(t, env.sync.ProcessPair(model.Pair{After: second}))

	var row struct {
		Title     string `db:"title"`
		Duplicate int    `db:"duplicate"`
	}
	require.NoError(t, env.db.NewQuery(`select title, duplicate from tracks where id = 't2'`).WithContext(context.Background()).One(&row))
	require.Equal(t, 2, row.Duplicate)

	before := second
	after := second
	after.Genre = "Jazz" // changes a non-key field only

	require.NoError(t, env.sync.ProcessPair(model.Pair{Before: before, After: after}))

	require.NoError(t, env.db.NewQuery(`select title, duplicate from tracks where id = 't2'`).WithContext(context.Background()).One(&row))
	require.Equal(t, "Song One (2)", row.Title)
	require.Equal(t, 2, row.Duplicate)

	require.Equal(t, 1, env.scalar(`select count(*) as n from tracks where id = 't1' and duplicate = 0`))
}

func TestProcessWVPair_InsertCreatesWorkAlbumWithoutDisturbingPlainAlbum(t *testing.T) {
	env := newTestEnv(t)

	row := baseRow("t1", "Aria", "Original Album", "Soloist", "3")
	require.NoError(t, env.sync.ProcessPair(model.Pair{After: row}))

	wv := model.WVRow{
		ID: "t1", ID2: "t1-2", Title: "Aria", GroupName: "Greatest Hits",
		Artist: "Soloist", Album: "Original Album", Composer: "Composer A",
		Genre: "Rock", Tracknumber: "3", Year: "2001",
		Created: "100", Lastmodified: "100", Inserted: "100",
		Type: "work", Updatetype: model.Insert,
	}
	require.NoError(t, env.sync.ProcessWVPair(model.WVPair{After: wv}))

	require.Equal(t, 1, env.scalar(`select count(*) as n from albums where albumlist = 'Composer A - Greatest Hits - Soloist' and albumtype = 200`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from albums where albumlist = 'Original Album' and albumtype = 10`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from ArtistAlbumTrack where track_id = 't1' and album = 'Composer A - Greatest Hits - Soloist'`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from ArtistAlbumTrack where track_id = 't1' and album = 'Original Album'`))

	require.NoError(t, env.sync.ProcessWVPair(model.WVPair{Before: wv}))

	require.Equal(t, 0, env.scalar(`select count(*) as n from albums where albumlist = 'Composer A - Greatest Hits - Soloist'`))
	require.Equal(t, 0, env.scalar(`select count(*) as n from ArtistAlbumTrack where track_id = 't1' and album = 'Composer A - Greatest Hits - Soloist'`))

	// The plain-album membership must survive: a work/virtual membership's
	// bridge rows are scoped to its own album_id, not just the track.
	require.Equal(t, 1, env.scalar(`select count(*) as n from albums where albumlist = 'Original Album'`))
	require.Equal(t, 1, env.scalar(`select count(*) as n from ArtistAlbumTrack where track_id = 't1' and album = 'Original Album'`))
}

func TestKeyChanged(t *testing.T) {
	before := model.Track{Title: "A", Album: "X", Artist: "Y", Tracknumber: 1}
	after := before
	require.False(t, keyChanged(before, after))

	after.Title = "B"
	require.True(t, keyChanged(before, after))
}
