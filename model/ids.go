// Package model holds the domain types the synchronizer reads and writes.
// Integer ids are assigned from fixed numeric bands so an entity's kind
// can be inferred from its id alone.
package model

const (
	ArtistBand      = 100000000
	AlbumartistBand = 200000000
	AlbumBand       = 300000000
	AlbumsonlyBand  = 350000000
	ComposerBand    = 400000000
	GenreBand       = 500000000
	PlaylistBand    = 700000000
)

// AlbumType encodes the album/virtual/work distinction in a single int.
type AlbumType int

const (
	AlbumTypePlain AlbumType = 10
)

// IsVirtual reports whether t falls in the virtual band (100-199).
func (t AlbumType) IsVirtual() bool { return t >= 100 && t < 200 }

// IsWork reports whether t falls in the work band (200-299).
func (t AlbumType) IsWork() bool { return t >= 200 && t < 300 }

// IsPlain reports whether t is the plain-album type (10).
func (t AlbumType) IsPlain() bool { return t == AlbumTypePlain }
