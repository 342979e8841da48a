package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

var albumsonlyColumns = []string{
	"id", "albumlist", "artistlist", "albumartistlist", "duplicate", "albumtype",
	"year", "cover", "artid", "inserted", "created", "lastmodified",
	"composerlist", "albumsort", "tracknumbers", "lastplayed", "playcount", "separated",
}

// AlbumsonlyRepository is the "albumsonly" roll-up CRUD surface.
type AlbumsonlyRepository struct {
	sqlRepository
}

func NewAlbumsonlyRepository(ctx context.Context, db dbx.Builder) *AlbumsonlyRepository {
	return &AlbumsonlyRepository{sqlRepository{ctx: ctx, db: db, tableName: "albumsonly"}}
}

func (r *AlbumsonlyRepository) ByKey(k model.AlbumsonlyKey) (model.Albumsonly, bool, error) {
	where := sq.Eq{"albumlist": k.Albumlist, "duplicate": k.Duplicate, "albumtype": k.Albumtype}
	if k.Separated {
		where["artistlist"] = k.Artistlist
		where["albumartistlist"] = k.Albumartistlist
	}
	var a model.Albumsonly
	err := r.queryOne(r.newSelect(albumsonlyColumns...).Where(where), &a)
	if err == dbx.ErrNotFound {
		return model.Albumsonly{}, false, nil
	}
	return a, err == nil, err
}

func (r *AlbumsonlyRepository) Insert(a model.Albumsonly) (int, error) {
	args := structArgs(&a)
	delete(args, "id")
	if _, err := r.executeSQL(statementBuilder.Insert("albumsonly").SetMap(args)); err != nil {
		return 0, err
	}
	where := sq.Eq{"albumlist": a.Albumlist, "duplicate": a.Duplicate, "albumtype": a.Albumtype}
	if a.Separated == 1 {
		where["artistlist"] = a.Artistlist
		where["albumartistlist"] = a.Albumartistlist
	}
	var row struct {
		ID int `db:"id"`
	}
	err := r.queryOne(r.newSelect("id").Where(where), &row)
	return row.ID, err
}

func (r *AlbumsonlyRepository) Update(a model.Albumsonly) error {
	_, err := r.executeSQL(statementBuilder.Update("albumsonly").SetMap(structArgs(&a)).Where(sq.Eq{"id": a.ID}))
	return err
}

func (r *AlbumsonlyRepository) Delete(id int) error {
	_, err := r.executeSQL(statementBuilder.Delete("albumsonly").Where(sq.Eq{"id": id}))
	return err
}

// DeleteIfEmpty removes rollups no album still contributes to, mirroring
// the NOT EXISTS reference-counting idiom used for every bridge table.
func (r *AlbumsonlyRepository) DeleteIfEmpty(id int) error {
	query := `delete from albumsonly where id = {:id} and not exists (
		select 1 from albums where albums.albumlist = albumsonly.albumlist and albums.albumtype = albumsonly.albumtype
	)`
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"id": id}).Execute()
	return err
}
