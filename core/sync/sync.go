// Package sync is the tag synchronizer, the heart of the system: it
// folds one before/after pair from the source database into the target
// tracks/albums/bridge-table schema, maintaining every reference count
// along the way. It is deliberately single-threaded — a batch's pairs
// are folded in order, never concurrently.
package sync

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jellydator/ttlcache/v3"

	"github.com/sonospy/movetags/conf"
	"github.com/sonospy/movetags/core/nameformat"
	"github.com/sonospy/movetags/core/normalize"
	"github.com/sonospy/movetags/core/rollup"
	"github.com/sonospy/movetags/log"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

// entityCache memoizes name->id lookups for the lifetime of one scan
// run, avoiding a round trip for every track that repeats an artist.
type entityCache struct {
	caches map[string]*ttlcache.Cache[string, int]
}

func newEntityCache() *entityCache {
	return &entityCache{caches: map[string]*ttlcache.Cache[string, int]{}}
}

func (c *entityCache) get(table, name string) (int, bool) {
	cache, ok := c.caches[table]
	if !ok {
		return 0, false
	}
	item := cache.Get(name)
	if item == nil {
		return 0, false
	}
	return item.Value(), true
}

func (c *entityCache) set(table, name string, id int) {
	cache, ok := c.caches[table]
	if !ok {
		cache = ttlcache.New[string, int](ttlcache.WithTTL[string, int](0))
		c.caches[table] = cache
	}
	cache.Set(name, id, ttlcache.NoTTL)
}

// Synchronizer owns every repository touched while folding a batch.
type Synchronizer struct {
	ctx  context.Context
	conf *conf.Config

	tracks     *persistence.TrackRepository
	albums     *persistence.AlbumRepository
	albumsonly *persistence.AlbumsonlyRepository
	cross      *persistence.CrossrefRepository
	entities   map[string]*persistence.EntityRepository
	rollup     *rollup.Syncer

	cache       *entityCache
	touched     map[model.AlbumKey]struct{}
	wvTemplates map[string]nameformat.Template
}

func New(ctx context.Context, cfg *conf.Config,
	tracks *persistence.TrackRepository,
	albums *persistence.AlbumRepository,
	albumsonly *persistence.AlbumsonlyRepository,
	cross *persistence.CrossrefRepository,
	artist, albumartist, composer, genre *persistence.EntityRepository,
	rollupSyncer *rollup.Syncer,
) *Synchronizer {
	return &Synchronizer{
		ctx: ctx, conf: cfg,
		tracks: tracks, albums: albums, albumsonly: albumsonly, cross: cross,
		entities: map[string]*persistence.EntityRepository{
			"artist": artist, "albumartist": albumartist, "composer": composer, "genre": genre,
		},
		rollup: rollupSyncer,
		cache:  newEntityCache(),
	}
}

// ProcessBatch folds every plain-track pair and every work/virtual
// membership pair of a scan, accumulating per-row storage errors rather
// than aborting, then recomputes the albumsonly roll-up (C7) once for
// every album key either stream touched.
func (s *Synchronizer) ProcessBatch(pairs []model.Pair, wvPairs []model.WVPair) error {
	s.touched = map[model.AlbumKey]struct{}{}
	var errs *multierror.Error
	for _, pair := range pairs {
		if err := s.ProcessPair(pair); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("track %s: %w", pairID(pair), err))
			log.Error(s.ctx, "failed to process track update", "id", pairID(pair), "error", err)
		}
	}
	for _, pair := range wvPairs {
		if err := s.ProcessWVPair(pair); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("work/virtual membership %s: %w", wvPairID(pair), err))
			log.Error(s.ctx, "failed to process work/virtual membership", "id", wvPairID(pair), "error", err)
		}
	}
	if s.rollup != nil {
		if err := s.rollup.Apply(s.touched); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("albumsonly roll-up: %w", err))
			log.Error(s.ctx, "failed to roll up albumsonly", "error", err)
		}
	}
	return errs.ErrorOrNil()
}

func (s *Synchronizer) markTouched(key model.AlbumKey) {
	if s.touched == nil {
		s.touched = map[model.AlbumKey]struct{}{}
	}
	s.touched[key] = struct{}{}
}

func pairID(p model.Pair) string {
	if p.After.ID != "" {
		return p.After.ID
	}
	return p.Before.ID
}

func wvPairID(p model.WVPair) string {
	if p.After.ID != "" {
		return p.After.ID + "/" + p.After.GroupName
	}
	return p.Before.ID + "/" + p.Before.GroupName
}

// ProcessPair applies one before/after track image. A pair with no After
// is a delete; one with no Before is an insert. A pair with both present
// is an update: if the track's unique key (title, album, artist,
// tracknumber) changed, it is handled as delete-then-insert (DESIGN.md
// decision on album_id reuse) so every downstream bridge table stays
// consistent; otherwise it is an in-place update that carries the
// existing row's duplicate suffix forward instead of recomputing
// disambiguation, since nothing about the collision key changed.
func (s *Synchronizer) ProcessPair(pair model.Pair) error {
	if pair.Before.ID == "" {
		if pair.After.ID == "" {
			return nil
		}
		if err := s.insertTrack(pair.After); err != nil {
			return fmt.Errorf("inserting track image: %w", err)
		}
		return nil
	}
	if pair.After.ID == "" {
		if err := s.deleteTrack(pair.Before); err != nil {
			return fmt.Errorf("removing previous track image: %w", err)
		}
		return nil
	}

	if keyChanged(s.normalize(pair.Before).track, s.normalize(pair.After).track) {
		if err := s.deleteTrack(pair.Before); err != nil {
			return fmt.Errorf("removing previous track image: %w", err)
		}
		if err := s.insertTrack(pair.After); err != nil {
			return fmt.Errorf("inserting track image: %w", err)
		}
		return nil
	}
	if err := s.updateTrack(pair.Before, pair.After); err != nil {
		return fmt.Errorf("updating track image: %w", err)
	}
	return nil
}

// keyChanged reports whether the tracks-table unique key (title, album,
// artist, tracknumber) differs between two normalized images.
func keyChanged(before, after model.Track) bool {
	bt, ba, bar, btn := before.Key()
	at, aa, aar, atn := after.Key()
	return bt != at || ba != aa || bar != aar || btn != atn
}

// ProcessWVPair applies one before/after work/virtual membership image.
// Unlike a plain track, a membership has no title-collision duplicate to
// preserve, so any change to it (the track's own attributes, or the
// group it names) is folded as remove-then-add rather than an in-place
// update.
func (s *Synchronizer) ProcessWVPair(pair model.WVPair) error {
	if pair.Before.ID == "" {
		if pair.After.ID == "" {
			return nil
		}
		return s.insertWVImage(pair.After)
	}
	if pair.After.ID == "" {
		return s.deleteWVImage(pair.Before)
	}
	if err := s.deleteWVImage(pair.Before); err != nil {
		return fmt.Errorf("removing previous work/virtual membership: %w", err)
	}
	if err := s.insertWVImage(pair.After); err != nil {
		return fmt.Errorf("inserting work/virtual membership: %w", err)
	}
	return nil
}

// insertWVImage adds the track's membership in one or more work/virtual
// display names (a multi-valued dimension, e.g. two artists, can expand
// to more than one name per nameformat.Expand) by reusing the plain
// album machinery with the computed display name standing in for
// Track.Album and a non-plain Albumtype.
func (s *Synchronizer) insertWVImage(row model.WVRow) error {
	names, albumtype, nt, err := s.expandWV(row)
	if err != nil {
		return err
	}
	for _, name := range names {
		nt2 := nt
		nt2.track.Album = name
		nt2.track.Albumsort = name
		albumID, err := s.upsertAlbum(nt2, model.AlbumType(albumtype))
		if err != nil {
			return fmt.Errorf("upsert work/virtual album %q: %w", name, err)
		}
		if err := s.maintainBridges(nt2, albumID, albumtype); err != nil {
			return fmt.Errorf("maintain bridges for work/virtual album %q: %w", name, err)
		}
	}
	return nil
}

// deleteWVImage removes the track's membership in one or more
// work/virtual display names, tearing down only the bridge rows that
// belong to that particular album, then reselecting or dropping the
// album the same way a plain-track delete does.
func (s *Synchronizer) deleteWVImage(row model.WVRow) error {
	names, albumtype, nt, err := s.expandWV(row)
	if err != nil {
		return err
	}
	for _, name := range names {
		nt2 := nt
		nt2.track.Album = name
		nt2.track.Albumsort = name

		key := model.AlbumKey{
			Albumlist: name, Artistlist: nt2.track.Artist, Albumartistlist: nt2.track.Albumartist,
			Duplicate: 0, Albumtype: albumtype,
		}
		s.markTouched(key)

		album, found, err := s.albums.ByKey(key)
		if err != nil {
			return err
		}
		albumID := 0
		if found {
			albumID = album.ID
		}

		unmaintain, err := s.prepareUnmaintainBridges(nt2.track, albumID)
		if err != nil {
			return fmt.Errorf("preparing bridge cleanup for work/virtual album %q: %w", name, err)
		}
		if err := unmaintain(albumID); err != nil {
			return fmt.Errorf("unmaintain bridge tables for work/virtual album %q: %w", name, err)
		}
		if !found {
			continue
		}
		if err := s.reselectOrDeleteAlbum(album); err != nil {
			return fmt.Errorf("reselect work/virtual album %q: %w", name, err)
		}
	}
	return nil
}

// expandWV normalizes a work/virtual membership row and renders its
// display name(s) via the name-format configured for row.GroupName (or
// the kind's default format, when no entry matches). The returned
// normalizedTrack has Album left at the track's real original album;
// callers overwrite it per rendered name before writing.
func (s *Synchronizer) expandWV(row model.WVRow) ([]string, int, normalizedTrack, error) {
	if row.Type != "work" && row.Type != "virtual" {
		return nil, 0, normalizedTrack{}, fmt.Errorf("unknown work/virtual type %q", row.Type)
	}

	tmpl, err := s.wvTemplate(row.Type, row.GroupName)
	if err != nil {
		return nil, 0, normalizedTrack{}, err
	}
	albumtype := s.wvAlbumtype(row.Type, row.GroupName)

	tr := model.TagRow{
		ID: row.ID, ID2: row.ID2, Title: row.Title,
		Artist: row.Artist, Album: row.Album, Genre: row.Genre,
		Tracknumber: row.Tracknumber, Year: row.Year,
		Albumartist: row.Albumartist, Composer: row.Composer,
		Codec: row.Codec, Length: row.Length, Size: row.Size,
		Created: row.Created, Path: row.Path, Filename: row.Filename,
		Discnumber: row.Discnumber, Comment: row.Comment,
		Folderart: row.Folderart, Trackart: row.Trackart,
		Folderartid: row.Folderartid, Trackartid: row.Trackartid,
		Bitrate: row.Bitrate, Samplerate: row.Samplerate, Bitspersample: row.Bitspersample,
		Channels: row.Channels, Mime: row.Mime, Lastmodified: row.Lastmodified,
		Inserted: row.Inserted, Lastscanned: row.Lastscanned,
		Titlesort: row.Titlesort, Albumsort: row.Albumsort, Artistsort: row.Artistsort,
		Albumartistsort: row.Albumartistsort, Composersort: row.Composersort,
		Coverart: row.Coverart, Coverartid: row.Coverartid,
	}
	nt := s.normalize(tr)

	multi := map[string][]string{
		"artist": nt.artists, "albumartist": nt.albumartists,
		"composer": nt.composers, "genre": nt.genres,
	}
	if row.Type == "work" {
		multi["work"] = []string{row.GroupName}
	} else {
		multi["virtual"] = []string{row.GroupName}
	}
	static := map[string]string{
		"id": row.ID, "album": row.Album,
		"tracknumber": fmt.Sprintf("%d", nt.track.Tracknumber),
		"year":        fmt.Sprintf("%d", nt.track.Year),
		"created":     fmt.Sprintf("%d", nt.track.Created),
		"lastmodified": fmt.Sprintf("%d", nt.track.Lastmodified),
		"inserted":    fmt.Sprintf("%d", nt.track.Inserted),
	}

	return nameformat.Expand(tmpl, multi, static), albumtype, nt, nil
}

// wvAlbumtype resolves the albumtype band a work/virtual name was
// allocated, falling back to the kind's default entry (conf.Load always
// seeds one) when the name has no dedicated [work name format] /
// [virtual name format] entry.
func (s *Synchronizer) wvAlbumtype(kind, name string) int {
	if at, ok := s.conf.WVLookup[name]; ok {
		return at
	}
	if kind == "work" {
		return s.conf.WVLookup["_DEFAULT_WORK"]
	}
	return s.conf.WVLookup["_DEFAULT_VIRTUAL"]
}

// wvTemplate resolves and parses (once, cached) the name-format template
// for a work/virtual group name.
func (s *Synchronizer) wvTemplate(kind, name string) (nameformat.Template, error) {
	cacheKey := kind + ":" + name
	if t, ok := s.wvTemplates[cacheKey]; ok {
		return t, nil
	}

	formats := s.conf.WorkFormats
	defaultName := "_DEFAULT_WORK"
	if kind == "virtual" {
		formats = s.conf.VirtualFormats
		defaultName = "_DEFAULT_VIRTUAL"
	}

	raw, ok := findNamedFormat(formats, name)
	if !ok {
		raw, ok = findNamedFormat(formats, defaultName)
	}
	if !ok {
		return nameformat.Template{}, fmt.Errorf("no %s name format available for %q", kind, name)
	}

	tmpl, err := nameformat.Parse(raw.Name, raw.Template, s.conf.LookupNameDict)
	if err != nil {
		return nameformat.Template{}, err
	}
	if s.wvTemplates == nil {
		s.wvTemplates = map[string]nameformat.Template{}
	}
	s.wvTemplates[cacheKey] = tmpl
	return tmpl, nil
}

func findNamedFormat(formats []conf.NamedFormat, name string) (conf.NamedFormat, bool) {
	for _, f := range formats {
		if f.Name == name {
			return f, true
		}
	}
	return conf.NamedFormat{}, false
}

// normalizedTrack is a TagRow after value normalization, split into the
// single concatenated display form (stored on the track row) and the
// per-dimension list form (fanned out across bridge tables).
type normalizedTrack struct {
	track model.Track

	artists      []string
	albumartists []string
	composers    []string
	genres       []string
}

func (s *Synchronizer) normalize(row model.TagRow) normalizedTrack {
	artist := normalize.Split(row.Artist, s.conf.MultiFieldSeparator, s.conf.IncludeArtist, s.conf.TheProcessing, true)
	albumartist := normalize.Split(row.Albumartist, s.conf.MultiFieldSeparator, s.conf.IncludeAlbumartist, s.conf.TheProcessing, true)
	composer := normalize.Split(row.Composer, s.conf.MultiFieldSeparator, s.conf.IncludeComposer, s.conf.TheProcessing, true)
	genre := normalize.Split(row.Genre, s.conf.MultiFieldSeparator, s.conf.IncludeGenre, conf.TheBefore, false)

	year, _ := normalize.Year(row.Year)
	tn := model.ParseTracknumber(normalize.AdjustTracknumber(row.Tracknumber))

	t := model.Track{
		ID: row.ID, ID2: row.ID2,
		Title:           row.Title,
		Artist:          artist.Filtered,
		ArtistFull:      artist.Full,
		Album:           row.Album,
		Genre:           genre.Filtered,
		Tracknumber:     tn.Value,
		Year:            year,
		Albumartist:     albumartist.Filtered,
		AlbumartistFull: albumartist.Full,
		Composer:        composer.Filtered,
		ComposerFull:    composer.Full,
		Codec:           row.Codec,
		Path:            row.Path,
		Filename:        row.Filename,
		Comment:         row.Comment,
		Folderart:       row.Folderart,
		Trackart:        row.Trackart,
		Folderartid:     row.Folderartid,
		Trackartid:      row.Trackartid,
		Mime:            row.Mime,
		Titlesort:       orDefault(row.Titlesort, row.Title),
		Albumsort:       orDefault(row.Albumsort, row.Album),
		Discnumber:      atoiOr(row.Discnumber),
		Length:          atoiOr(row.Length),
		Size:            atoiOr(row.Size),
		Created:         atoiOr(row.Created),
		Bitrate:         atoiOr(row.Bitrate),
		Samplerate:      atoiOr(row.Samplerate),
		Bitspersample:   atoiOr(row.Bitspersample),
		Channels:        atoiOr(row.Channels),
		Lastmodified:    atoiOr(row.Lastmodified),
		Inserted:        atoiOr(row.Inserted),
		Lastscanned:     atoiOr(row.Lastscanned),
	}

	return normalizedTrack{
		track:        t,
		artists:      orEmptyString(artist.List),
		albumartists: orEmptyString(albumartist.List),
		composers:    orEmptyString(composer.List),
		genres:       orEmptyString(genre.List),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orEmptyString(list []string) []string {
	if len(list) == 0 {
		return []string{""}
	}
	return list
}

// insertTrack normalizes row, disambiguates a title collision, writes
// the track row, resolves/creates its plain album entry, and maintains
// every dimension's bridge tables.
func (s *Synchronizer) insertTrack(row model.TagRow) error {
	nt := s.normalize(row)

	dup, err := s.tracks.MaxDuplicate(nt.track.Title, nt.track.Album, nt.track.Artist)
	if err != nil {
		return err
	}
	nt.track.Duplicate = disambiguate(dup)
	if nt.track.Duplicate > 0 {
		nt.track.Title = fmt.Sprintf("%s (%d)", nt.track.Title, nt.track.Duplicate)
	}

	if err := s.tracks.Insert(nt.track); err != nil {
		return fmt.Errorf("insert track: %w", err)
	}

	albumID, err := s.upsertAlbum(nt, model.AlbumTypePlain)
	if err != nil {
		return fmt.Errorf("upsert album: %w", err)
	}

	if err := s.maintainBridges(nt, albumID, int(model.AlbumTypePlain)); err != nil {
		return fmt.Errorf("maintain bridge tables: %w", err)
	}
	return nil
}

// disambiguate returns 0 the first time a (title, album, artist) key is
// seen and maxExisting+1 (or 2, the first collision) thereafter, per the
// " (N)" title-suffix rule.
func disambiguate(maxExisting int) int {
	switch maxExisting {
	case 0:
		return 0
	case 1:
		return 2
	default:
		return maxExisting + 1
	}
}

// updateTrack applies a non-key-changing update: title, album, artist
// and tracknumber are unchanged from the stored row, so the existing
// duplicate suffix is carried forward rather than recomputed — recomputing
// would undercount, since the row being updated is itself the only
// remaining holder of that duplicate value. Bridge tables are still torn
// down and rebuilt, since a dimension outside the key (albumartist,
// composer, genre) may have changed.
func (s *Synchronizer) updateTrack(before, after model.TagRow) error {
	existing, found, err := s.tracks.ByID(before.ID)
	if err != nil {
		return err
	}
	if !found {
		return s.insertTrack(after)
	}

	nt := s.normalize(after)
	nt.track.Duplicate = existing.Duplicate
	if nt.track.Duplicate > 0 {
		nt.track.Title = fmt.Sprintf("%s (%d)", nt.track.Title, nt.track.Duplicate)
	}

	oldKey := model.AlbumKey{
		Albumlist: existing.Album, Artistlist: existing.Artist,
		Albumartistlist: existing.Albumartist, Duplicate: existing.Duplicate,
		Albumtype: int(model.AlbumTypePlain),
	}
	s.markTouched(oldKey)

	oldAlbum, oldAlbumFound, err := s.albums.ByKey(oldKey)
	if err != nil {
		return err
	}
	oldAlbumID := 0
	if oldAlbumFound {
		oldAlbumID = oldAlbum.ID
	}

	unmaintain, err := s.prepareUnmaintainBridges(existing, oldAlbumID)
	if err != nil {
		return fmt.Errorf("preparing bridge cleanup: %w", err)
	}

	if err := s.tracks.Update(nt.track); err != nil {
		return fmt.Errorf("update track: %w", err)
	}

	if err := unmaintain(oldAlbumID); err != nil {
		return fmt.Errorf("unmaintain bridge tables: %w", err)
	}
	if oldAlbumFound {
		if err := s.reselectOrDeleteAlbum(oldAlbum); err != nil {
			return fmt.Errorf("reselect album after update: %w", err)
		}
	}

	albumID, err := s.upsertAlbum(nt, model.AlbumTypePlain)
	if err != nil {
		return fmt.Errorf("upsert album: %w", err)
	}
	return s.maintainBridges(nt, albumID, int(model.AlbumTypePlain))
}

func (s *Synchronizer) deleteTrack(row model.TagRow) error {
	if row.ID == "" {
		return nil
	}
	existing, found, err := s.tracks.ByID(row.ID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	key := model.AlbumKey{
		Albumlist: existing.Album, Artistlist: existing.Artist,
		Albumartistlist: existing.Albumartist, Duplicate: existing.Duplicate,
		Albumtype: int(model.AlbumTypePlain),
	}
	s.markTouched(key)

	album, albumFound, err := s.albums.ByKey(key)
	if err != nil {
		return err
	}
	albumID := 0
	if albumFound {
		albumID = album.ID
	}

	// Bridge rows must be captured/pruned around the delete, not after:
	// prepareUnmaintainBridges reads each dimension's genre crosses before the
	// track-level rows naming them disappear.
	unmaintain, err := s.prepareUnmaintainBridges(existing, albumID)
	if err != nil {
		return fmt.Errorf("preparing bridge cleanup: %w", err)
	}

	if err := s.tracks.Delete(row.ID); err != nil {
		return err
	}

	if err := unmaintain(albumID); err != nil {
		return fmt.Errorf("unmaintain bridge tables: %w", err)
	}

	if !albumFound {
		return nil
	}
	return s.reselectOrDeleteAlbum(album)
}

// upsertAlbum finds or creates nt's album entry of the given albumtype, refreshing
// its denormalized fields if the inserted track now has the lowest
// tracknumber.
func (s *Synchronizer) upsertAlbum(nt normalizedTrack, albumtype model.AlbumType) (int, error) {
	key := model.AlbumKey{
		Albumlist: nt.track.Album, Artistlist: nt.track.Artist,
		Albumartistlist: nt.track.Albumartist, Duplicate: nt.track.Duplicate,
		Albumtype: int(albumtype),
	}
	s.markTouched(key)

	album, found, err := s.albums.ByKey(key)
	if err != nil {
		return 0, err
	}

	tn := model.Present(nt.track.Tracknumber)
	if nt.track.Tracknumber == 0 {
		tn = model.MissingTracknumber
	}

	if !found {
		numbers := model.TracknumberList{tn}
		a := model.Album{
			Albumlist: key.Albumlist, Artistlist: key.Artistlist, Albumartistlist: key.Albumartistlist,
			Duplicate: key.Duplicate, Albumtype: key.Albumtype,
			Year: nt.track.Year, Composerlist: nt.track.Composer, Albumsort: nt.track.Albumsort,
			Cover: pickCover(nt.track, s.conf.PreferFolderart), Artid: pickCoverID(nt.track, s.conf.PreferFolderart),
			Created: nt.track.Created, Lastmodified: nt.track.Lastmodified, Inserted: nt.track.Inserted,
			Tracknumbers: numbers.String(),
		}
		return s.albums.Insert(a)
	}

	numbers := model.ParseTracknumberList(album.Tracknumbers).Union(model.TracknumberList{tn})
	album.Tracknumbers = numbers.String()
	if numbers.Lowest() == tn {
		album.Year = nt.track.Year
		album.Composerlist = nt.track.Composer
		album.Albumsort = nt.track.Albumsort
		album.Cover = pickCover(nt.track, s.conf.PreferFolderart)
		album.Artid = pickCoverID(nt.track, s.conf.PreferFolderart)
		album.Created = nt.track.Created
	}
	album.Lastmodified = nt.track.Lastmodified
	if err := s.albums.Update(album); err != nil {
		return 0, err
	}
	return album.ID, nil
}

func pickCover(t model.Track, preferFolder bool) string {
	if preferFolder && t.Folderart != "" {
		return t.Folderart
	}
	if t.Trackart != "" {
		return t.Trackart
	}
	return t.Folderart
}

func pickCoverID(t model.Track, preferFolder bool) int {
	if preferFolder && t.Folderartid != 0 {
		return t.Folderartid
	}
	if t.Trackartid != 0 {
		return t.Trackartid
	}
	return t.Folderartid
}

// reselectOrDeleteAlbum drops album's row once it has no remaining
// contributing track; otherwise removes the deleted contribution from
// Tracknumbers and re-derives every denormalized field from whichever
// remaining track is now lowest-numbered.
func (s *Synchronizer) reselectOrDeleteAlbum(album model.Album) error {
	remaining, err := s.tracks.ByAlbum(album.Albumlist, album.Artistlist, album.Albumartistlist, album.Duplicate)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return s.albums.Delete(album.ID)
	}

	lowest := remaining[0]
	var lowestTN model.Tracknumber
	numbers := make(model.TracknumberList, 0, len(remaining))
	for i, t := range remaining {
		tn := model.Present(t.Tracknumber)
		if t.Tracknumber == 0 {
			tn = model.MissingTracknumber
		}
		if i == 0 || tn.Less(lowestTN) {
			lowest, lowestTN = t, tn
		}
		numbers = append(numbers, tn)
	}

	album.Tracknumbers = numbers.String()
	album.Year = lowest.Year
	album.Composerlist = lowest.Composer
	album.Albumsort = lowest.Albumsort
	album.Cover = pickCover(lowest, s.conf.PreferFolderart)
	album.Artid = pickCoverID(lowest, s.conf.PreferFolderart)
	album.Created = lowest.Created
	album.Inserted = lowest.Inserted
	album.Lastmodified = lowest.Lastmodified
	return s.albums.Update(album)
}

// maintainBridges ensures, for each of artist/albumartist/composer and
// every value the track carries in that dimension, that the entity row,
// the album-level bridge row, and the track-level bridge row all exist;
// genre additionally crosses with artist and albumartist.
func (s *Synchronizer) maintainBridges(nt normalizedTrack, albumID int, albumtype int) error {
	for _, dim := range model.Dimensions {
		values := valuesFor(dim.Name, nt)
		for _, value := range values {
			if value == "" {
				continue
			}
			if err := s.ensureDimensionRows(dim, value, nt, albumID, albumtype); err != nil {
				return err
			}
			for _, genre := range nt.genres {
				if genre == "" || dim.GenreAlbumTable == "" {
					continue
				}
				if err := s.ensureGenreCrossRows(dim, genre, value, nt, albumID, albumtype); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func valuesFor(dimension string, nt normalizedTrack) []string {
	switch dimension {
	case "artist":
		return nt.artists
	case "albumartist":
		return nt.albumartists
	case "composer":
		return nt.composers
	default:
		return nil
	}
}

func (s *Synchronizer) ensureDimensionRows(dim model.Dimension, value string, nt normalizedTrack, albumID, albumtype int) error {
	if _, err := s.entityID(dim.EntityKind, value); err != nil {
		return err
	}
	if err := s.cross.PutIfAbsent(dim.AlbumTable, map[string]interface{}{
		"album_id": albumID, sortlessCol(dim): value, "album": nt.track.Album,
		"duplicate": nt.track.Duplicate, "albumtype": albumtype,
	}); err != nil {
		return err
	}
	return s.cross.PutIfAbsent(dim.TrackTable, map[string]interface{}{
		"track_id": nt.track.ID, sortlessCol(dim): value, "album": nt.track.Album,
		"album_id": albumID, "duplicate": nt.track.Duplicate, "albumtype": albumtype,
	})
}

func (s *Synchronizer) ensureGenreCrossRows(dim model.Dimension, genre, value string, nt normalizedTrack, albumID, albumtype int) error {
	if err := s.cross.PutIfAbsent(dim.GenreTable, map[string]interface{}{
		"genre": genre, sortlessCol(dim): value,
	}); err != nil {
		return err
	}
	if err := s.cross.PutIfAbsent(dim.GenreAlbumTable, map[string]interface{}{
		"album_id": albumID, "genre": genre, sortlessCol(dim): value,
		"album": nt.track.Album, "duplicate": nt.track.Duplicate, "albumtype": albumtype,
	}); err != nil {
		return err
	}
	return s.cross.PutIfAbsent(dim.GenreTrackTable, map[string]interface{}{
		"track_id": nt.track.ID, "genre": genre, sortlessCol(dim): value,
		"album": nt.track.Album, "album_id": albumID, "duplicate": nt.track.Duplicate, "albumtype": albumtype,
	})
}

// sortlessCol is the dimension's column name in its bridge tables (the
// EntityKind.Column name doubles as the bridge-table column name).
func sortlessCol(dim model.Dimension) string { return dim.EntityKind.Column }

// entityID resolves kind+name to an id, through the per-run cache.
func (s *Synchronizer) entityID(kind model.EntityKind, name string) (int, error) {
	if id, ok := s.cache.get(kind.Table, name); ok {
		return id, nil
	}
	id, err := s.entities[kind.Column].EnsureID(name)
	if err != nil {
		return 0, err
	}
	s.cache.set(kind.Table, name, id)
	return id, nil
}

// prepareUnmaintainBridges reads, per dimension, the genre/field crosses
// the soon-to-be-deleted track contributed — the only information that
// would otherwise be lost once its track-level bridge rows are removed
// — and returns a closure that performs the actual cleanup once the
// caller has deleted the track row and resolved its album's id. Cleanup
// always runs as DELETE WHERE NOT EXISTS, never a SQL FK cascade, since
// deletion is conditional on being the last referrer.
func (s *Synchronizer) prepareUnmaintainBridges(track model.Track, albumID int) (func(albumID int) error, error) {
	type dimCrosses struct {
		dim     model.Dimension
		crosses [][2]string
	}
	prepared := make([]dimCrosses, 0, len(model.Dimensions))
	for _, dim := range model.Dimensions {
		var crosses [][2]string
		if dim.GenreTrackTable != "" {
			var err error
			crosses, err = s.cross.GenreCrossesForTrack(dim.GenreTrackTable, dim.EntityKind.Column, track.ID, albumID)
			if err != nil {
				return nil, err
			}
		}
		prepared = append(prepared, dimCrosses{dim, crosses})
	}

	return func(albumID int) error {
		for _, pc := range prepared {
			dim := pc.dim
			if err := s.cross.DeleteByTrackID(dim.TrackTable, track.ID, albumID); err != nil {
				return err
			}
			if err := s.cross.DeleteUnreferencedByAlbum(dim.AlbumTable, dim.TrackTable, albumID); err != nil {
				return err
			}
			if dim.GenreTrackTable != "" {
				if err := s.cross.DeleteByTrackID(dim.GenreTrackTable, track.ID, albumID); err != nil {
					return err
				}
				if err := s.cross.DeleteUnreferencedByAlbum(dim.GenreAlbumTable, dim.GenreTrackTable, albumID); err != nil {
					return err
				}
				for _, cross := range pc.crosses {
					genre, field := cross[0], cross[1]
					if err := s.cross.DeleteUnreferencedCross(dim.GenreTable, dim.GenreAlbumTable, "genre", dim.EntityKind.Column, genre, field); err != nil {
						return err
					}
				}
			}
			entity := s.entities[dim.EntityKind.Column]
			if err := entity.DeleteUnreferenced(dim.TrackTable, dim.EntityKind.Column); err != nil {
				return err
			}
		}
		// Entity rows may have just been deleted; drop their cached ids.
		s.cache = newEntityCache()
		return s.entities["genre"].DeleteUnreferenced(model.DimensionArtist.GenreTrackTable, "genre")
	}, nil
}

func atoiOr(s string) int {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0
	}
	return n
}
