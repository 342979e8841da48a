package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
)

// CrossrefRepository maintains the browse bridge tables generically: one
// implementation serves all fourteen of them (ArtistAlbum, ComposerAlbumTrack,
// GenreArtistAlbum, ...), parameterized by table/column names, rather than
// fourteen hand-written near-duplicates (see model.Dimension and DESIGN.md's
// "generalized lookup types" entry).
type CrossrefRepository struct {
	ctx context.Context
	db  dbx.Builder
}

func NewCrossrefRepository(ctx context.Context, db dbx.Builder) *CrossrefRepository {
	return &CrossrefRepository{ctx: ctx, db: db}
}

// PutIfAbsent inserts a row into table with the given column->value args,
// guarded by a NOT EXISTS on the same column set, so a row already
// present (the common case on rescans) is left untouched.
func (r *CrossrefRepository) PutIfAbsent(table string, args map[string]interface{}) error {
	cols := make([]string, 0, len(args))
	for c := range args {
		cols = append(cols, c)
	}
	placeholders := make([]string, len(cols))
	conds := make([]string, len(cols))
	params := dbx.Params{}
	for i, c := range cols {
		name := fmt.Sprintf("c%d", i)
		placeholders[i] = "{:" + name + "}"
		conds[i] = fmt.Sprintf("%s = {:%s}", c, name)
		params[name] = args[c]
	}
	query := fmt.Sprintf(
		"insert into %s (%s) select %s where not exists (select 1 from %s where %s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), table, strings.Join(conds, " and "))
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(params).Execute()
	return err
}

// DeleteByTrackID removes table's rows for one track's membership in one
// album (scoped by albumID, not just trackID — a track can contribute to
// several albums at once, one plain and any number of work/virtual
// groupings, each with its own bridge-table rows for the same track).
func (r *CrossrefRepository) DeleteByTrackID(table, trackID string, albumID int) error {
	query := fmt.Sprintf(`delete from %s where track_id = {:id} and album_id = {:album}`, table)
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"id": trackID, "album": albumID}).Execute()
	return err
}

// DeleteUnreferencedByAlbum removes album-level bridge rows (table keyed
// on album_id) that no track-level bridge row (trackTable) still cites,
// i.e. the album/value pair has no more contributing tracks.
func (r *CrossrefRepository) DeleteUnreferencedByAlbum(table, trackTable string, albumID int) error {
	query := fmt.Sprintf(
		`delete from %s where album_id = {:id} and not exists (select 1 from %s where %s.album_id = {:id})`,
		table, trackTable, trackTable)
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"id": albumID}).Execute()
	return err
}

// DeleteUnreferencedCross removes a genre/field cross-table row (table
// keyed on (genre, field)) once no album-level bridge row cites that
// combination anymore.
func (r *CrossrefRepository) DeleteUnreferencedCross(table, genreAlbumTable, genreCol, fieldCol string, genre, field string) error {
	query := fmt.Sprintf(
		`delete from %s where %s = {:genre} and %s = {:field} and not exists (
			select 1 from %s where %s.%s = {:genre} and %s.%s = {:field}
		)`, table, genreCol, fieldCol, genreAlbumTable, genreAlbumTable, genreCol, genreAlbumTable, fieldCol)
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"genre": genre, "field": field}).Execute()
	return err
}

// DeleteByAlbumID removes every row of table (an ArtistAlbumsonly- or
// AlbumartistAlbumsonly-shaped bridge table) keyed on album_id. Unlike
// the track-level bridge tables these rows are owned outright by one
// albumsonly row, so no reference count is needed: the owning row's
// deletion means these go too.
func (r *CrossrefRepository) DeleteByAlbumID(table string, albumID int) error {
	query := fmt.Sprintf(`delete from %s where album_id = {:id}`, table)
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"id": albumID}).Execute()
	return err
}

// GenreCrossesForTrack returns the distinct (genre, field-value) pairs a
// track contributed to genreTrackTable for one album membership, read
// before its rows are deleted, so the caller can prune genre-cross rows
// those pairs leave unreferenced afterward.
func (r *CrossrefRepository) GenreCrossesForTrack(genreTrackTable, fieldCol, trackID string, albumID int) ([][2]string, error) {
	var rows []struct {
		Genre string `db:"genre"`
		Field string `db:"field"`
	}
	query := fmt.Sprintf(`select distinct genre, %s as field from %s where track_id = {:id} and album_id = {:album}`, fieldCol, genreTrackTable)
	if err := r.db.NewQuery(query).WithContext(r.ctx).Bind(dbx.Params{"id": trackID, "album": albumID}).All(&rows); err != nil {
		return nil, err
	}
	out := make([][2]string, len(rows))
	for i, row := range rows {
		out[i] = [2]string{row.Genre, row.Field}
	}
	return out, nil
}

