package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

var albumColumns = []string{
	"id", "albumlist", "artistlist", "albumartistlist", "duplicate", "albumtype",
	"year", "cover", "artid", "inserted", "created", "lastmodified",
	"composerlist", "albumsort", "tracknumbers", "lastplayed", "playcount",
}

// AlbumRepository is the "albums" table CRUD surface. This package never
// serves albums over HTTP, so there is no REST filter/sort machinery here.
type AlbumRepository struct {
	sqlRepository
}

func NewAlbumRepository(ctx context.Context, db dbx.Builder) *AlbumRepository {
	return &AlbumRepository{sqlRepository{ctx: ctx, db: db, tableName: "albums"}}
}

func (r *AlbumRepository) ByKey(k model.AlbumKey) (model.Album, bool, error) {
	var a model.Album
	err := r.queryOne(r.newSelect(albumColumns...).Where(sq.Eq{
		"albumlist": k.Albumlist, "artistlist": k.Artistlist,
		"albumartistlist": k.Albumartistlist, "duplicate": k.Duplicate, "albumtype": k.Albumtype,
	}), &a)
	if err == dbx.ErrNotFound {
		return model.Album{}, false, nil
	}
	return a, err == nil, err
}

func (r *AlbumRepository) ByID(id int) (model.Album, bool, error) {
	var a model.Album
	err := r.queryOne(r.newSelect(albumColumns...).Where(sq.Eq{"id": id}), &a)
	if err == dbx.ErrNotFound {
		return model.Album{}, false, nil
	}
	return a, err == nil, err
}

// Insert creates a fresh album row, letting sqlite assign an id from the
// 300000000 band, and returns the assigned id.
func (r *AlbumRepository) Insert(a model.Album) (int, error) {
	args := structArgs(&a)
	delete(args, "id")
	if _, err := r.executeSQL(statementBuilder.Insert("albums").SetMap(args)); err != nil {
		return 0, err
	}
	var row struct {
		ID int `db:"id"`
	}
	err := r.queryOne(r.newSelect("id").Where(sq.Eq{
		"albumlist": a.Albumlist, "artistlist": a.Artistlist,
		"albumartistlist": a.Albumartistlist, "duplicate": a.Duplicate, "albumtype": a.Albumtype,
	}), &row)
	return row.ID, err
}

func (r *AlbumRepository) Update(a model.Album) error {
	_, err := r.executeSQL(statementBuilder.Update("albums").SetMap(structArgs(&a)).Where(sq.Eq{"id": a.ID}))
	return err
}

func (r *AlbumRepository) Delete(id int) error {
	_, err := r.executeSQL(statementBuilder.Delete("albums").Where(sq.Eq{"id": id}))
	return err
}

// MaxDuplicate mirrors TrackRepository.MaxDuplicate for the album title
// collision rule.
func (r *AlbumRepository) MaxDuplicate(albumlist, artistlist, albumartistlist string, albumtype int) (int, error) {
	var row struct {
		Max int `db:"m"`
	}
	err := r.queryOne(r.newSelect("coalesce(max(duplicate), 0) as m").Where(sq.Eq{
		"albumlist": albumlist, "artistlist": artistlist,
		"albumartistlist": albumartistlist, "albumtype": albumtype,
	}), &row)
	return row.Max, err
}

// ByRollupKey lists every album row that contributes to an albumsonly
// roll-up: every artist/albumartist combination sharing (albumlist,
// duplicate, albumtype) when the album is not in the separate-albums
// exception list, or the single matching artist/albumartist combination
// when it is.
func (r *AlbumRepository) ByRollupKey(albumlist string, duplicate, albumtype int, artistlist, albumartistlist string, separated bool) ([]model.Album, error) {
	where := sq.Eq{"albumlist": albumlist, "duplicate": duplicate, "albumtype": albumtype}
	if separated {
		where["artistlist"] = artistlist
		where["albumartistlist"] = albumartistlist
	}
	var rows []model.Album
	err := r.queryAll(r.newSelect(albumColumns...).Where(where), &rows)
	return rows, err
}
