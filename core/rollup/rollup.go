// Package rollup implements the album-only roll-up (C7): after a scan
// batch's per-track work is committed, it recomputes the per-album-title
// aggregate that browse clients use for the "all albums" axis, ignoring
// artist/albumartist unless the album name is in the configured
// separate-albums exception list.
package rollup

import (
	"context"
	"strings"

	"github.com/sonospy/movetags/conf"
	"github.com/sonospy/movetags/core/normalize"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

// Syncer recomputes albumsonly rows for whatever album keys a batch touched.
type Syncer struct {
	ctx  context.Context
	conf *conf.Config

	albums     *persistence.AlbumRepository
	albumsonly *persistence.AlbumsonlyRepository
	cross      *persistence.CrossrefRepository
}

func New(ctx context.Context, cfg *conf.Config, albums *persistence.AlbumRepository, albumsonly *persistence.AlbumsonlyRepository, cross *persistence.CrossrefRepository) *Syncer {
	return &Syncer{ctx: ctx, conf: cfg, albums: albums, albumsonly: albumsonly, cross: cross}
}

// Apply recomputes the albumsonly roll-up for every album key touched
// during a batch. Order is irrelevant: each key is independent.
func (s *Syncer) Apply(touched map[model.AlbumKey]struct{}) error {
	for key := range touched {
		if err := s.rollup(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) rollup(key model.AlbumKey) error {
	separated := s.separated(key.Albumlist)

	rows, err := s.albums.ByRollupKey(key.Albumlist, key.Duplicate, key.Albumtype, key.Artistlist, key.Albumartistlist, separated)
	if err != nil {
		return err
	}

	onlyKey := model.AlbumsonlyKey{
		Albumlist: key.Albumlist, Artistlist: key.Artistlist, Albumartistlist: key.Albumartistlist,
		Duplicate: key.Duplicate, Albumtype: key.Albumtype, Separated: separated,
	}

	if len(rows) == 0 {
		return s.delete(onlyKey)
	}

	sep := 0
	if separated {
		sep = 1
	}

	var numbers model.TracknumberList
	chosen := rows[0]
	for _, a := range rows {
		numbers = numbers.Union(model.ParseTracknumberList(a.Tracknumbers))
		if !separated && a.Tracknumbers < chosen.Tracknumbers {
			chosen = a
		}
	}

	row := model.Albumsonly{
		Albumlist: key.Albumlist, Artistlist: key.Artistlist, Albumartistlist: key.Albumartistlist,
		Duplicate: key.Duplicate, Albumtype: key.Albumtype,
		Year: chosen.Year, Cover: chosen.Cover, Artid: chosen.Artid,
		Inserted: chosen.Inserted, Created: chosen.Created, Lastmodified: chosen.Lastmodified,
		Composerlist: chosen.Composerlist, Albumsort: chosen.Albumsort,
		Tracknumbers: numbers.String(),
		Separated:    sep,
	}

	existing, found, err := s.albumsonly.ByKey(onlyKey)
	if err != nil {
		return err
	}

	var id int
	if found {
		row.ID = existing.ID
		row.Lastplayed = existing.Lastplayed
		row.Playcount = existing.Playcount
		id = existing.ID
		if err := s.albumsonly.Update(row); err != nil {
			return err
		}
	} else {
		id, err = s.albumsonly.Insert(row)
		if err != nil {
			return err
		}
	}

	for _, name := range splitNames(key.Artistlist) {
		if err := s.cross.PutIfAbsent("ArtistAlbumsonly", map[string]interface{}{
			"album_id": id, "album": key.Albumlist, "artist": name,
			"duplicate": key.Duplicate, "albumtype": key.Albumtype, "albumsort": row.Albumsort,
		}); err != nil {
			return err
		}
	}
	for _, name := range splitNames(key.Albumartistlist) {
		if err := s.cross.PutIfAbsent("AlbumartistAlbumsonly", map[string]interface{}{
			"album_id": id, "album": key.Albumlist, "albumartist": name,
			"duplicate": key.Duplicate, "albumtype": key.Albumtype, "albumsort": row.Albumsort,
		}); err != nil {
			return err
		}
	}
	return nil
}

// delete removes an albumsonly row and its owned bridge rows once no
// album row still contributes to its key.
func (s *Syncer) delete(key model.AlbumsonlyKey) error {
	existing, found, err := s.albumsonly.ByKey(key)
	if err != nil || !found {
		return err
	}
	if err := s.cross.DeleteByAlbumID("ArtistAlbumsonly", existing.ID); err != nil {
		return err
	}
	if err := s.cross.DeleteByAlbumID("AlbumartistAlbumsonly", existing.ID); err != nil {
		return err
	}
	return s.albumsonly.Delete(existing.ID)
}

func (s *Syncer) separated(albumlist string) bool {
	for _, name := range s.conf.SeparateAlbumList {
		if strings.EqualFold(name, albumlist) {
			return true
		}
	}
	return false
}

func splitNames(list string) []string {
	var out []string
	for _, name := range strings.Split(list, normalize.MultiSeparator) {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
