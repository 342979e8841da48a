package rollup

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/sonospy/movetags/conf"
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

func TestApply_RollsUpAcrossTwoArtistsIntoOneAlbumsonly(t *testing.T) {
	db := newTestDB(t)
	albums := persistence.NewAlbumRepository(context.Background(), db)
	albumsonly := persistence.NewAlbumsonlyRepository(context.Background(), db)
	cross := persistence.NewCrossrefRepository(context.Background(), db)
	cfg := &conf.Config{}
	syncer := New(context.Background(), cfg, albums, albumsonly, cross)

	key := model.AlbumKey{Albumlist: "Compilation", Artistlist: "Artist A", Albumartistlist: "Artist A", Duplicate: 0, Albumtype: 10}
	_, err := albums.Insert(model.Album{
		Albumlist: "Compilation", Artistlist: "Artist A", Albumartistlist: "Artist A",
		Albumtype: 10, Year: 2000, Tracknumbers: "1",
	})
	require.NoError(t, err)

	key2 := model.AlbumKey{Albumlist: "Compilation", Artistlist: "Artist B", Albumartistlist: "Artist B", Duplicate: 0, Albumtype: 10}
	_, err = albums.Insert(model.Album{
		Albumlist: "Compilation", Artistlist: "Artist B", Albumartistlist: "Artist B",
		Albumtype: 10, Year: 2001, Tracknumbers: "2",
	})
	require.NoError(t, err)

	require.NoError(t, syncer.Apply(map[model.AlbumKey]struct{}{key: {}, key2: {}}))

	row, found, err := albumsonly.ByKey(model.AlbumsonlyKey{Albumlist: "Compilation", Duplicate: 0, Albumtype: 10})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1,2", row.Tracknumbers)
}

func TestApply_SeparateAlbumListKeepsArtistsDistinct(t *testing.T) {
	db := newTestDB(t)
	albums := persistence.NewAlbumRepository(context.Background(), db)
	albumsonly := persistence.NewAlbumsonlyRepository(context.Background(), db)
	cross := persistence.NewCrossrefRepository(context.Background(), db)
	cfg := &conf.Config{SeparateAlbumList: []string{"Greatest Hits"}}
	syncer := New(context.Background(), cfg, albums, albumsonly, cross)

	keyA := model.AlbumKey{Albumlist: "Greatest Hits", Artistlist: "Artist A", Albumartistlist: "Artist A", Duplicate: 0, Albumtype: 10}
	_, err := albums.Insert(model.Album{
		Albumlist: "Greatest Hits", Artistlist: "Artist A", Albumartistlist: "Artist A",
		Albumtype: 10, Tracknumbers: "1",
	})
	require.NoError(t, err)

	keyB := model.AlbumKey{Albumlist: "Greatest Hits", Artistlist: "Artist B", Albumartistlist: "Artist B", Duplicate: 0, Albumtype: 10}
	_, err = albums.Insert(model.Album{
		Albumlist: "Greatest Hits", Artistlist: "Artist B", Albumartistlist: "Artist B",
		Albumtype: 10, Tracknumbers: "1",
	})
	require.NoError(t, err)

	require.NoError(t, syncer.Apply(map[model.AlbumKey]struct{}{keyA: {}, keyB: {}}))

	rowA, found, err := albumsonly.ByKey(model.AlbumsonlyKey{Albumlist: "Greatest Hits", Artistlist: "Artist A", Albumartistlist: "Artist A", Duplicate: 0, Albumtype: 10, Separated: true})
	require.NoError(t, err)
	require.True(t, found)

	rowB, found, err := albumsonly.ByKey(model.AlbumsonlyKey{Albumlist: "Greatest Hits", Artistlist: "Artist B", Albumartistlist: "Artist B", Duplicate: 0, Albumtype: 10, Separated: true})
	require.NoError(t, err)
	require.True(t, found)

	require.NotEqual(t, rowA.ID, rowB.ID)
}

func TestApply_DeletesRollupWhenNoAlbumRemains(t *testing.T) {
	db := newTestDB(t)
	albums := persistence.NewAlbumRepository(context.Background(), db)
	albumsonly := persistence.NewAlbumsonlyRepository(context.Background(), db)
	cross := persistence.NewCrossrefRepository(context.Background(), db)
	cfg := &conf.Config{}
	syncer := New(context.Background(), cfg, albums, albumsonly, cross)

	key := model.AlbumKey{Albumlist: "Solo Album", Artistlist: "Artist A", Albumartistlist: "Artist A", Duplicate: 0, Albumtype: 10}
	id, err := albums.Insert(model.Album{
		Albumlist: "Solo Album", Artistlist: "Artist A", Albumartistlist: "Artist A",
		Albumtype: 10, Tracknumbers: "1",
	})
	require.NoError(t, err)
	require.NoError(t, syncer.Apply(map[model.AlbumKey]struct{}{key: {}}))

	_, found, err := albumsonly.ByKey(model.AlbumsonlyKey{Albumlist: "Solo Album", Duplicate: 0, Albumtype: 10})
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, albums.Delete(id))
	require.NoError(t, syncer.Apply(map[model.AlbumKey]struct{}{key: {}}))

	_, found, err = albumsonly.ByKey(model.AlbumsonlyKey{Albumlist: "Solo Album", Duplicate: 0, Albumtype: 10})
	require.NoError(t, err)
	require.False(t, found)
}
