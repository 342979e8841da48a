package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

var trackColumns = []string{
	"id", "id2", "duplicate", "title", "artist", "artistfull", "album", "genre",
	"tracknumber", "year", "albumartist", "albumartistfull", "composer", "composerfull",
	"codec", "length", "size", "created", "path", "filename", "discnumber", "comment",
	"folderart", "trackart", "folderartid", "trackartid", "bitrate", "samplerate",
	"bitspersample", "channels", "mime", "lastmodified", "inserted", "lastplayed",
	"playcount", "lastscanned", "titlesort", "albumsort",
}

// TrackRepository is the "tracks" table CRUD surface.
type TrackRepository struct {
	sqlRepository
}

func NewTrackRepository(ctx context.Context, db dbx.Builder) *TrackRepository {
	return &TrackRepository{sqlRepository{ctx: ctx, db: db, tableName: "tracks"}}
}

func (r *TrackRepository) ByID(id string) (model.Track, bool, error) {
	var t model.Track
	err := r.queryOne(r.newSelect(trackColumns...).Where(sq.Eq{"id": id}), &t)
	if err == dbx.ErrNotFound {
		return model.Track{}, false, nil
	}
	return t, err == nil, err
}

// ByKey finds every track sharing (title, album, artist, tracknumber),
// ordered by duplicate, for disambiguation-suffix assignment (
// "Duplicate" invariant).
func (r *TrackRepository) ByKey(title, album, artist string, tracknumber int) ([]model.Track, error) {
	var rows []model.Track
	err := r.queryAll(r.newSelect(trackColumns...).
		Where(sq.Eq{"title": title, "album": album, "artist": artist, "tracknumber": tracknumber}).
		OrderBy("duplicate"), &rows)
	return rows, err
}

// MaxDuplicate returns the highest existing duplicate suffix for title
// under album/artist, counting rows already titled "title (N)" and an
// existing unsuffixed row as 1, or 0 if there is none yet, for the " (N)"
// title collision rule.
func (r *TrackRepository) MaxDuplicate(title, album, artist string) (int, error) {
	var row struct {
		Max int `db:"m"`
	}
	err := r.queryOne(r.newSelect("coalesce(max(case when duplicate = 0 then 1 else duplicate end), 0) as m").
		Where(sq.Eq{"album": album, "artist": artist}).
		Where(sq.Or{sq.Eq{"title": title}, sq.Like{"title": title + " (%"}}), &row)
	return row.Max, err
}

func (r *TrackRepository) Insert(t model.Track) error {
	_, err := r.executeSQL(statementBuilder.Insert("tracks").SetMap(structArgs(&t)))
	return err
}

func (r *TrackRepository) Update(t model.Track) error {
	_, err := r.executeSQL(statementBuilder.Update("tracks").SetMap(structArgs(&t)).Where(sq.Eq{"id": t.ID}))
	return err
}

func (r *TrackRepository) Delete(id string) error {
	_, err := r.executeSQL(statementBuilder.Delete("tracks").Where(sq.Eq{"id": id}))
	return err
}

// ByAlbum lists every track still contributing to (albumlist,
// artistlist, albumartistlist, duplicate), ordered by tracknumber, for
// re-deriving an album's denormalized fields after a contributing track
// is deleted.
func (r *TrackRepository) ByAlbum(albumlist, artistlist, albumartistlist string, duplicate int) ([]model.Track, error) {
	var rows []model.Track
	err := r.queryAll(r.newSelect(trackColumns...).
		Where(sq.Eq{
			"album": albumlist, "artist": artistlist,
			"albumartist": albumartistlist, "duplicate": duplicate,
		}).
		OrderBy("tracknumber"), &rows)
	return rows, err
}

// ByPath finds the track at (path, filename), the upstream scanner's
// physical-file identity.
func (r *TrackRepository) ByPath(path, filename string) (model.Track, bool, error) {
	var t model.Track
	err := r.queryOne(r.newSelect(trackColumns...).Where(sq.Eq{"path": path, "filename": filename}), &t)
	if err == dbx.ErrNotFound {
		return model.Track{}, false, nil
	}
	return t, err == nil, err
}
