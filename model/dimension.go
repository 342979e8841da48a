package model

// Dimension names one of the three track-level multi-valued fields that
// fan out into their own entity table plus a parallel set of bridge
// tables used for genre/album/track browsing. Genre
// is not itself a Dimension: it crosses the artist and albumartist
// dimensions instead of having its own album/track bridge tables.
type Dimension struct {
	Name string // "artist", "albumartist" or "composer"

	EntityKind EntityKind

	// AlbumTable is the (album_id, field, album, duplicate,
	// albumtype, sort, lastplayed, playcount) bridge table, e.g. ArtistAlbum.
	AlbumTable string

	// TrackTable is the (track_id, field, album, album_id, duplicate,
	// albumtype) bridge table, e.g. ArtistAlbumTrack.
	TrackTable string

	// AlbumsonlyTable is the (album_id, album, field, duplicate,
	// albumtype, albumsort, lastplayed, playcount) bridge table. Composer
	// has none in the original schema.
	AlbumsonlyTable string

	// GenreAlbumTable and GenreTrackTable are genre-crossed counterparts,
	// e.g. GenreArtistAlbum / GenreArtistAlbumTrack. Empty for composer.
	GenreAlbumTable string
	GenreTrackTable string

	// GenreTable is the (genre, field, lastplayed, playcount) cross
	// table, e.g. GenreArtist.
	GenreTable string
}

var (
	DimensionArtist = Dimension{
		Name:            "artist",
		EntityKind:      KindArtist,
		AlbumTable:      "ArtistAlbum",
		TrackTable:      "ArtistAlbumTrack",
		AlbumsonlyTable: "ArtistAlbumsonly",
		GenreAlbumTable: "GenreArtistAlbum",
		GenreTrackTable: "GenreArtistAlbumTrack",
		GenreTable:      "GenreArtist",
	}
	DimensionAlbumartist = Dimension{
		Name:            "albumartist",
		EntityKind:      KindAlbumartist,
		AlbumTable:      "AlbumartistAlbum",
		TrackTable:      "AlbumartistAlbumTrack",
		AlbumsonlyTable: "AlbumartistAlbumsonly",
		GenreAlbumTable: "GenreAlbumartistAlbum",
		GenreTrackTable: "GenreAlbumartistAlbumTrack",
		GenreTable:      "GenreAlbumartist",
	}
	DimensionComposer = Dimension{
		Name:       "composer",
		EntityKind: KindComposer,
		AlbumTable: "ComposerAlbum",
		TrackTable: "ComposerAlbumTrack",
		// No AlbumsonlyTable, GenreAlbumTable, GenreTrackTable or
		// GenreTable: the original schema never crosses composer with
		// genre or rolls it into albumsonly.
	}

	// Dimensions lists every track-level multi-valued field the
	// synchronizer fans bridge-table maintenance over, in the stable
	// order core/sync iterates them.
	Dimensions = []Dimension{DimensionArtist, DimensionAlbumartist, DimensionComposer}
)
