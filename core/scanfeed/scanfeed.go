// Package scanfeed streams one scan batch's worth of tag changes off the
// source (upstream scanner) database, in three concatenated sub-streams:
// tags_update rows (plain track changes), workvirtuals_update rows
// joined to tags (work/virtual membership changes for a track whose
// tags didn't change), and workvirtuals_update deletions joined to
// tags_update (membership deletions alongside a track change). Each
// physical change arrives as an adjacent before/after model.Pair
// (updateorder 0 then 1).
package scanfeed

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

// Feed reads pending scan batches from the source database.
type Feed struct {
	ctx        context.Context
	db         dbx.Builder
	regenerate bool
}

func New(ctx context.Context, db dbx.Builder, regenerate bool) *Feed {
	return &Feed{ctx: ctx, db: db, regenerate: regenerate}
}

// PendingScans lists scan batches not yet folded into the target
// database, oldest first.
func (f *Feed) PendingScans(afterScanID int) ([]model.ScanBatch, error) {
	var rows []model.ScanBatch
	query := `select id as scan_id, path as scan_path from scans where id > {:after} order by id`
	err := f.db.NewQuery(query).WithContext(f.ctx).Bind(dbx.Params{"after": afterScanID}).All(&rows)
	return rows, err
}

// TagPairs streams the tags_update sub-stream for one scan as adjacent
// before/after pairs. Ordering is "updatetype, rowid" normally, or
// "id, updateorder" when regenerating.
func (f *Feed) TagPairs(scanID int) ([]model.Pair, error) {
	order := "updatetype, rowid"
	if f.regenerate {
		order = "id, updateorder"
	}
	query := fmt.Sprintf(`
		select id, id2, title, artist, album, genre, tracknumber, year,
		       albumartist, composer, codec, length, size, created, path, filename,
		       discnumber, comment, folderart, trackart, bitrate, samplerate,
		       bitspersample, channels, mime, lastmodified, folderartid, trackartid,
		       inserted, lastscanned, titlesort, albumsort, artistsort, albumartistsort,
		       composersort, updateorder, updatetype, coverart, coverartid
		from tags_update
		where scannumber = {:scan}
		order by %s`, order)

	var rows []model.TagRow
	if err := f.db.NewQuery(query).WithContext(f.ctx).Bind(dbx.Params{"scan": scanID}).All(&rows); err != nil {
		return nil, err
	}
	return pairUp(rows), nil
}

// WVPairs streams the workvirtuals_update sub-streams: insert/update
// membership rows joined to tags (current attributes), plus deletion
// rows joined to tags_update (the track's own before/after image),
// concatenated in that order. Ordering when regenerating is
// "wvfile, plfile, id, title, type, occurs, updateorder".
//
// workvirtuals_update carries its own artist/title/genre/track/year/
// albumartist/composer/created/lastmodified/*sort/cover/coverartid
// columns — one row per track-to-group membership, so these can differ
// from the track's own tags row (a track keeps one title but can belong
// to several work/virtual groups at once, each with its own sort order
// and disc/cover artwork choice). wv.title is the group's display name
// ("Best Of"), not the track's title, so the real title and the track's
// original album both come from the joined t/tu row instead.
func (f *Feed) WVPairs(scanID int) ([]model.WVPair, error) {
	order := "substream, updatetype, wvrowid"
	if f.regenerate {
		order = "substream, wvfile, plfile, id, title, type, occurs, updateorder"
	}

	query := fmt.Sprintf(`
		select 0 as substream, wv.rowid as wvrowid,
		       wv.wvfile, wv.plfile, wv.type, wv.occurs, wv.updateorder, wv.updatetype,
		       wv.artist, wv.title as group_name, wv.genre, wv.track as tracknumber, wv.year,
		       wv.albumartist, wv.composer, wv.created, wv.discnumber, wv.lastmodified,
		       wv.inserted, wv.lastscanned, wv.titlesort, wv.albumsort, wv.artistsort,
		       wv.albumartistsort, wv.composersort, wv.cover as coverart, wv.coverartid,
		       t.id, t.id2, t.title, t.album, t.codec, t.length, t.size, t.path, t.filename,
		       t.comment, t.folderart, t.trackart, t.bitrate, t.samplerate, t.bitspersample,
		       t.channels, t.mime, t.folderartid, t.trackartid
		from workvirtuals_update wv
		join tags t on t.id = wv.id
		where wv.scannumber = {:scan} and wv.updatetype != 'D'
		union all
		select 1 as substream, wv.rowid as wvrowid,
		       wv.wvfile, wv.plfile, wv.type, wv.occurs, wv.updateorder, wv.updatetype,
		       wv.artist, wv.title as group_name, wv.genre, wv.track as tracknumber, wv.year,
		       wv.albumartist, wv.composer, wv.created, wv.discnumber, wv.lastmodified,
		       wv.inserted, wv.lastscanned, wv.titlesort, wv.albumsort, wv.artistsort,
		       wv.albumartistsort, wv.composersort, wv.cover as coverart, wv.coverartid,
		       tu.id, tu.id2, tu.title, tu.album, tu.codec, tu.length, tu.size, tu.path, tu.filename,
		       tu.comment, tu.folderart, tu.trackart, tu.bitrate, tu.samplerate, tu.bitspersample,
		       tu.channels, tu.mime, tu.folderartid, tu.trackartid
		from workvirtuals_update wv
		join tags_update tu on tu.id = wv.id and tu.scannumber = wv.scannumber
		where wv.scannumber = {:scan} and wv.updatetype = 'D'
		order by %s`, order)

	var rows []model.WVRow
	if err := f.db.NewQuery(query).WithContext(f.ctx).Bind(dbx.Params{"scan": scanID}).All(&rows); err != nil {
		return nil, err
	}
	return wvPairUp(rows), nil
}

// pairUp groups adjacent updateorder-0/1 rows sharing the same id into
// before/after pairs. A row with no updateorder-0 sibling (a bare
// insert) is given an empty Before; a row with no updateorder-1 sibling
// (a bare delete) is given an empty After.
func pairUp(rows []model.TagRow) []model.Pair {
	byID := map[string][2]*model.TagRow{}
	var order []string
	for i := range rows {
		row := &rows[i]
		slot := byID[row.ID]
		if slot[0] == nil && slot[1] == nil {
			order = append(order, row.ID)
		}
		if row.Updateorder == 0 {
			slot[0] = row
		} else {
			slot[1] = row
		}
		byID[row.ID] = slot
	}
	pairs := make([]model.Pair, 0, len(order))
	for _, id := range order {
		slot := byID[id]
		var pair model.Pair
		if slot[0] != nil {
			pair.Before = *slot[0]
		}
		if slot[1] != nil {
			pair.After = *slot[1]
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

func wvPairUp(rows []model.WVRow) []model.WVPair {
	type key struct {
		id   string
		file string
		typ  string
	}
	byKey := map[key][2]*model.WVRow{}
	var order []key
	for i := range rows {
		row := &rows[i]
		k := key{row.ID, row.WVFile, row.Type}
		slot := byKey[k]
		if slot[0] == nil && slot[1] == nil {
			order = append(order, k)
		}
		if row.Updateorder == 0 {
			slot[0] = row
		} else {
			slot[1] = row
		}
		byKey[k] = slot
	}
	pairs := make([]model.WVPair, 0, len(order))
	for _, k := range order {
		slot := byKey[k]
		var pair model.WVPair
		if slot[0] != nil {
			pair.Before = *slot[0]
		}
		if slot[1] != nil {
			pair.After = *slot[1]
		}
		pairs = append(pairs, pair)
	}
	return pairs
}
