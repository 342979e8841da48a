package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// TagSyncSchema returns the goose migration that lays down the tag
// synchronizer's full target schema. It is registered explicitly with
// the provider in core/schema rather than through goose's package-level
// init() registry, since this module has no SQL migration files on
// disk for goose to scan.
func TagSyncSchema() *goose.Migration {
	return goose.NewGoMigration(
		1,
		&goose.GoFunc{RunTx: upCreateTagSyncSchema},
		&goose.GoFunc{RunTx: downCreateTagSyncSchema},
	)
}

// upCreateTagSyncSchema lays down every table and index the tag
// synchronizer reads and writes. Every autoincrement table is seeded by
// inserting a row at its id band's start and deleting it in the same
// statement batch, so sqlite_sequence begins counting from the band.
func upCreateTagSyncSchema(_ context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
create table if not exists params (
    key                   text,
    lastmodified          integer,
    lastscanstamp         integer,
    lastscanid            integer,
    use_albumartist       text,
    show_duplicates       text,
    album_identification  text
);
insert into params (key, lastmodified, lastscanstamp, lastscanid, use_albumartist, show_duplicates, album_identification)
    select '1', 0, 0, 0, '', '', ''
    where not exists (select 1 from params where key = '1');

create table if not exists wvlookup (
    wvtype   text,
    wvnumber integer
);

create table if not exists tracks (
    id              text,
    id2             text,
    duplicate       integer,
    title           text collate nocase,
    artist          text collate nocase,
    artistfull      text collate nocase,
    album           text collate nocase,
    genre           text collate nocase,
    tracknumber     integer,
    year            integer,
    albumartist     text collate nocase,
    albumartistfull text collate nocase,
    composer        text collate nocase,
    composerfull    text collate nocase,
    codec           text,
    length          integer,
    size            integer,
    created         integer,
    path            text,
    filename        text,
    discnumber      integer,
    comment         text,
    folderart       text,
    trackart        text,
    bitrate         integer,
    samplerate      integer,
    bitspersample   integer,
    channels        integer,
    mime            text,
    lastmodified    integer,
    folderartid     integer,
    trackartid      integer,
    inserted        integer,
    lastplayed      integer,
    playcount       integer,
    lastscanned     integer,
    titlesort       text collate nocase,
    albumsort       text collate nocase
);
create unique index if not exists inxTracks on tracks (title, album, artist, tracknumber);
create unique index if not exists inxTrackId on tracks (id);
create index if not exists inxTrackId2 on tracks (id2);
create index if not exists inxTrackDuplicates on tracks (duplicate);
create index if not exists inxTrackTitles on tracks (title);
create index if not exists inxTrackAlbums on tracks (album);
create index if not exists inxTrackAlbumDups on tracks (album, duplicate);
create index if not exists inxTrackAlbumDiscTrackTitles on tracks (album, discnumber, tracknumber, title);
create index if not exists inxTrackDiscTrackTitles on tracks (discnumber, tracknumber, title);
create index if not exists inxTrackArtists on tracks (artist);
create index if not exists inxTrackAlbumArtists on tracks (albumartist);
create index if not exists inxTrackComposers on tracks (composer);
create index if not exists inxTrackTitlesort on tracks (titlesort);
create index if not exists inxTrackYears on tracks (year);
create index if not exists inxTrackLastmodifieds on tracks (lastmodified);
create index if not exists inxTrackInserteds on tracks (inserted);
create index if not exists inxTrackTracknumber on tracks (tracknumber);
create index if not exists inxTrackLastplayeds on tracks (lastplayed);
create index if not exists inxTrackPlaycounts on tracks (playcount);
create index if not exists inxTrackPathFilename on tracks (path, filename);
create index if not exists inxTrackPlay on tracks (title, album, artist, length);

create table if not exists albums (
    id              integer primary key autoincrement,
    albumlist       text collate nocase,
    artistlist      text collate nocase,
    year            integer,
    albumartistlist text collate nocase,
    duplicate       integer,
    cover           text,
    artid           integer,
    inserted        integer,
    composerlist    text collate nocase,
    tracknumbers    text,
    created         integer,
    lastmodified    integer,
    albumtype       integer,
    lastplayed      integer,
    playcount       integer,
    albumsort       text collate nocase
);
create unique index if not exists inxAlbums on albums (albumlist, artistlist, albumartistlist, duplicate, albumtype);
create unique index if not exists inxAlbumId on albums (id);
create index if not exists inxAlbumAlbums on albums (albumlist);
create index if not exists inxAlbumAlbumsort on albums (albumsort);
create index if not exists inxAlbumArtists2 on albums (artistlist);
create index if not exists inxAlbumAlbumartists on albums (albumartistlist);
create index if not exists inxAlbumComposers on albums (composerlist);
create index if not exists inxAlbumYears on albums (year);
create index if not exists inxAlbumInserteds on albums (inserted);
create index if not exists inxAlbumCreateds on albums (created);
create index if not exists inxAlbumLastmodifieds on albums (lastmodified);
create index if not exists inxAlbumLastPlayeds on albums (lastplayed);
create index if not exists inxAlbumPlaycounts on albums (playcount);
create index if not exists inxAlbumAlbumtype on albums (albumtype);
create index if not exists inxAlbumTracknumbers on albums (tracknumbers);
create index if not exists inxAlbumTracknumbers2 on albums (albumlist, tracknumbers, albumtype, duplicate);
insert into albums (id) select 300000000 where not exists (select 1 from sqlite_sequence where name = 'albums');
delete from albums where id = 300000000;

create table if not exists albumsonly (
    id              integer primary key autoincrement,
    albumlist       text collate nocase,
    artistlist      text collate nocase,
    year            integer,
    albumartistlist text collate nocase,
    duplicate       integer,
    cover           text,
    artid           integer,
    inserted        integer,
    composerlist    text collate nocase,
    tracknumbers    text,
    created         integer,
    lastmodified    integer,
    albumtype       integer,
    lastplayed      integer,
    playcount       integer,
    albumsort       text collate nocase,
    separated       integer
);
create unique index if not exists inxAlbumsonly on albumsonly (albumlist, artistlist, albumartistlist, duplicate, albumtype);
create unique index if not exists inxAlbumsonlyId on albumsonly (id);
create index if not exists inxAlbumsonlyShort on albumsonly (albumlist, duplicate, albumtype);
insert into albumsonly (id) select 350000000 where not exists (select 1 from sqlite_sequence where name = 'albumsonly');
delete from albumsonly where id = 350000000;

create table if not exists Artist (
    id         integer primary key autoincrement,
    artist     text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxArtists on Artist (artist);
create index if not exists inxArtistLastplayeds on Artist (lastplayed);
create index if not exists inxArtistPlaycounts on Artist (playcount);
insert into Artist (id) select 100000000 where not exists (select 1 from sqlite_sequence where name = 'Artist');
delete from Artist where id = 100000000;

create table if not exists Albumartist (
    id          integer primary key autoincrement,
    albumartist text collate nocase,
    lastplayed  integer,
    playcount   integer
);
create unique index if not exists inxAlbumartists on Albumartist (albumartist);
create index if not exists inxAlbumartistLastplayeds on Albumartist (lastplayed);
create index if not exists inxAlbumartistPlaycounts on Albumartist (playcount);
insert into Albumartist (id) select 200000000 where not exists (select 1 from sqlite_sequence where name = 'Albumartist');
delete from Albumartist where id = 200000000;

create table if not exists Composer (
    id         integer primary key autoincrement,
    composer   text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxComposers on Composer (composer);
create index if not exists inxComposerLastplayeds on Composer (lastplayed);
create index if not exists inxComposerPlaycounts on Composer (playcount);
insert into Composer (id) select 400000000 where not exists (select 1 from sqlite_sequence where name = 'Composer');
delete from Composer where id = 400000000;

create table if not exists Genre (
    id         integer primary key autoincrement,
    genre      text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxGenres on Genre (genre);
create index if not exists inxGenreLastplayeds on Genre (lastplayed);
create index if not exists inxGenrePlaycounts on Genre (playcount);
insert into Genre (id) select 500000000 where not exists (select 1 from sqlite_sequence where name = 'Genre');
delete from Genre where id = 500000000;

create table if not exists GenreArtist (
    genre      text collate nocase,
    artist     text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxGenreArtist on GenreArtist (genre, artist);
create index if not exists inxGenreArtistLastplayed on GenreArtist (lastplayed);
create index if not exists inxGenreArtistPlaycount on GenreArtist (playcount);

create table if not exists GenreAlbumartist (
    genre       text collate nocase,
    albumartist text collate nocase,
    lastplayed  integer,
    playcount   integer
);
create unique index if not exists inxGenreAlbumartist on GenreAlbumartist (genre, albumartist);
create index if not exists inxGenreAlbumartistLastplayed on GenreAlbumartist (lastplayed);
create index if not exists inxGenreAlbumartistPlaycount on GenreAlbumartist (playcount);

create table if not exists GenreArtistAlbum (
    album_id   integer,
    genre      text collate nocase,
    artist     text collate nocase,
    album      text collate nocase,
    duplicate  integer,
    albumtype  integer,
    artistsort text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxGenreArtistAlbum on GenreArtistAlbum (album_id, genre, artist, album, duplicate, albumtype, artistsort);
create index if not exists inxGenreArtistAlbumGenreArtist on GenreArtistAlbum (genre, artist, album, albumtype);
create index if not exists inxGenreArtistAlbumArtist on GenreArtistAlbum (artist);
create index if not exists inxGenreArtistAlbumArtistsort on GenreArtistAlbum (artistsort);
create index if not exists inxGenreArtistAlbumLastplayed on GenreArtistAlbum (lastplayed);
create index if not exists inxGenreArtistAlbumPlaycount on GenreArtistAlbum (playcount);

create table if not exists GenreAlbumartistAlbum (
    album_id        integer,
    genre           text collate nocase,
    albumartist     text collate nocase,
    album           text collate nocase,
    duplicate       integer,
    albumtype       integer,
    albumartistsort text collate nocase,
    lastplayed      integer,
    playcount       integer
);
create unique index if not exists inxGenreAlbumartistAlbum on GenreAlbumartistAlbum (album_id, genre, albumartist, album, duplicate, albumtype, albumartistsort);
create index if not exists inxGenreAlbumartistAlbumGenreAlbumartist on GenreAlbumartistAlbum (genre, albumartist, album, albumtype);
create index if not exists inxGenreAlbumartistAlbumAlbumartist on GenreAlbumartistAlbum (albumartist);
create index if not exists inxGenreAlbumartistAlbumAlbumartistsort on GenreAlbumartistAlbum (albumartistsort);
create index if not exists inxGenreAlbumartistAlbumLastplayed on GenreAlbumartistAlbum (lastplayed);
create index if not exists inxGenreAlbumartistAlbumPlaycount on GenreAlbumartistAlbum (playcount);

create table if not exists ArtistAlbum (
    album_id   integer,
    artist     text collate nocase,
    album      text collate nocase,
    duplicate  integer,
    albumtype  integer,
    artistsort text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxArtistAlbum on ArtistAlbum (album_id, artist, album, duplicate, albumtype, artistsort);
create index if not exists inxArtistAlbumArtist on ArtistAlbum (artist);
create index if not exists inxArtistAlbumArtistsort on ArtistAlbum (artistsort);
create index if not exists inxArtistAlbumArtistType on ArtistAlbum (artist, albumtype);
create index if not exists inxArtistAlbumLastplayed on ArtistAlbum (lastplayed);
create index if not exists inxArtistAlbumPlaycount on ArtistAlbum (playcount);

create table if not exists AlbumartistAlbum (
    album_id        integer,
    albumartist     text collate nocase,
    album           text collate nocase,
    duplicate       integer,
    albumtype       integer,
    albumartistsort text collate nocase,
    lastplayed      integer,
    playcount       integer
);
create unique index if not exists inxAlbumartistAlbum on AlbumartistAlbum (album_id, albumartist, album, duplicate, albumtype, albumartistsort);
create index if not exists inxAlbumartistAlbumAlbumartist on AlbumartistAlbum (albumartist);
create index if not exists inxAlbumartistAlbumAlbumartistsort on AlbumartistAlbum (albumartistsort);
create index if not exists inxAlbumartistAlbumAlbumartistType on AlbumartistAlbum (albumartist, albumtype);
create index if not exists inxAlbumartistAlbumLastplayed on AlbumartistAlbum (lastplayed);
create index if not exists inxAlbumartistAlbumPlaycount on AlbumartistAlbum (playcount);

create table if not exists ComposerAlbum (
    album_id      integer,
    composer      text collate nocase,
    album         text collate nocase,
    duplicate     integer,
    albumtype     integer,
    composersort  text collate nocase,
    lastplayed    integer,
    playcount     integer
);
create unique index if not exists inxComposerAlbum on ComposerAlbum (album_id, composer, album, duplicate, albumtype, composersort);
create index if not exists inxComposerAlbumComposer on ComposerAlbum (composer);
create index if not exists inxComposerAlbumComposersort on ComposerAlbum (composersort);
create index if not exists inxComposerAlbumComposerType on ComposerAlbum (composer, albumtype);
create index if not exists inxComposerAlbumAlbum on ComposerAlbum (album);
create index if not exists inxComposerAlbumLastplayed on ComposerAlbum (lastplayed);
create index if not exists inxComposerAlbumPlaycount on ComposerAlbum (playcount);

create table if not exists ArtistAlbumsonly (
    album_id   integer,
    album      text collate nocase,
    artist     text,
    duplicate  integer,
    albumtype  integer,
    albumsort  text collate nocase,
    lastplayed integer,
    playcount  integer
);
create unique index if not exists inxArtistAlbumsonly on ArtistAlbumsonly (album_id, album, artist, duplicate, albumtype, albumsort);
create index if not exists inxArtistAlbumsonlyAlbumsort on ArtistAlbumsonly (albumsort);
create index if not exists inxArtistAlbumsonlyAlbumType on ArtistAlbumsonly (album, albumtype);
create index if not exists inxArtistAlbumsonlyLastplayed on ArtistAlbumsonly (lastplayed);
create index if not exists inxArtistAlbumsonlyPlaycount on ArtistAlbumsonly (playcount);

create table if not exists AlbumartistAlbumsonly (
    album_id    integer,
    album       text collate nocase,
    albumartist text,
    duplicate   integer,
    albumtype   integer,
    albumsort   text collate nocase,
    lastplayed  integer,
    playcount   integer
);
create unique index if not exists inxAlbumartistAlbumsonly on AlbumartistAlbumsonly (album_id, album, albumartist, duplicate, albumtype, albumsort);
create index if not exists inxAlbumartistAlbumsonlyAlbumsort on AlbumartistAlbumsonly (albumsort);
create index if not exists inxAlbumartistAlbumsonlyAlbumType on AlbumartistAlbumsonly (album, albumtype);
create index if not exists inxAlbumartistAlbumsonlyLastplayed on AlbumartistAlbumsonly (lastplayed);
create index if not exists inxAlbumartistAlbumsonlyPlaycount on AlbumartistAlbumsonly (playcount);

create table if not exists GenreArtistAlbumTrack (
    track_id  integer,
    genre     text collate nocase,
    artist    text collate nocase,
    album     text collate nocase,
    album_id  integer,
    duplicate integer,
    albumtype integer
);
create unique index if not exists inxGenreArtistAlbumTrack on GenreArtistAlbumTrack (track_id, genre, artist, album, duplicate, albumtype);
create index if not exists inxGenreArtistAlbumTrackGenreArtistAlbum on GenreArtistAlbumTrack (genre, artist, album, albumtype);
create index if not exists inxGenreArtistAlbumTrackGenreArtistAlbumDup on GenreArtistAlbumTrack (genre, artist, album, duplicate);
create index if not exists inxGenreArtistAlbumTrackGenreArtistAlbumIdDup on GenreArtistAlbumTrack (genre, artist, album_id, duplicate);

create table if not exists GenreAlbumartistAlbumTrack (
    track_id    integer,
    genre       text collate nocase,
    albumartist text collate nocase,
    album       text collate nocase,
    album_id    integer,
    duplicate   integer,
    albumtype   integer
);
create unique index if not exists inxGenreAlbumartistAlbumTrack on GenreAlbumartistAlbumTrack (track_id, genre, albumartist, album, duplicate, albumtype);
create index if not exists inxGenreAlbumartistAlbumTrackGenreAlbumArtistAlbum on GenreAlbumartistAlbumTrack (genre, albumartist, album, albumtype);
create index if not exists inxGenreAlbumartistAlbumTrackGenreAlbumArtistAlbumDup on GenreAlbumartistAlbumTrack (genre, albumartist, album, duplicate);
create index if not exists inxGenreAlbumartistAlbumTrackGenreAlbumArtistAlbumIdDup on GenreAlbumartistAlbumTrack (genre, albumartist, album_id, duplicate);

create table if not exists ArtistAlbumTrack (
    track_id  integer,
    artist    text collate nocase,
    album     text collate nocase,
    album_id  integer,
    duplicate integer,
    albumtype integer
);
create unique index if not exists inxArtistAlbumTrack on ArtistAlbumTrack (track_id, artist, album, duplicate, albumtype);
create index if not exists inxArtistAlbumTrackArtistAlbum on ArtistAlbumTrack (artist, album, albumtype);
create index if not exists inxArtistAlbumTrackArtistAlbumDup on ArtistAlbumTrack (artist, album, duplicate, albumtype);
create index if not exists inxArtistAlbumTrackArtistAlbumIdDup on ArtistAlbumTrack (artist, album_id, duplicate, albumtype);

create table if not exists AlbumartistAlbumTrack (
    track_id    integer,
    albumartist text collate nocase,
    album       text collate nocase,
    album_id    integer,
    duplicate   integer,
    albumtype   integer
);
create unique index if not exists inxAlbumArtistAlbumTrack on AlbumartistAlbumTrack (track_id, albumartist, album, duplicate, albumtype);
create index if not exists inxAlbumArtistAlbumTrackAlbumArtistAlbum on AlbumartistAlbumTrack (albumartist, album, albumtype);
create index if not exists inxAlbumArtistAlbumTrackAlbumArtistAlbumDup on AlbumartistAlbumTrack (albumartist, album, duplicate, albumtype);
create index if not exists inxAlbumArtistAlbumTrackAlbumArtistAlbumIdDup on AlbumartistAlbumTrack (albumartist, album_id, duplicate, albumtype);

create table if not exists ComposerAlbumTrack (
    track_id  integer,
    composer  text collate nocase,
    album     text collate nocase,
    album_id  integer,
    duplicate integer,
    albumtype integer
);
create unique index if not exists inxComposerAlbumTrack on ComposerAlbumTrack (track_id, composer, album, duplicate, albumtype);
create index if not exists inxComposerAlbumTrackComposerAlbum on ComposerAlbumTrack (composer, album, albumtype);
create index if not exists inxComposerAlbumTrackComposerAlbumDup on ComposerAlbumTrack (composer, album, duplicate, albumtype);
create index if not exists inxComposerAlbumTrackComposerAlbumIdDup on ComposerAlbumTrack (composer, album_id, duplicate, albumtype);

create table if not exists TrackNumbers (
    track_id    integer,
    genre       text collate nocase,
    artist      text collate nocase,
    albumartist text collate nocase,
    album       text collate nocase,
    dummyalbum  text collate nocase,
    composer    text collate nocase,
    duplicate   integer,
    albumtype   integer,
    tracknumber integer,
    coverart    text,
    coverartid  integer
);
create unique index if not exists inxTrackNumbers on TrackNumbers (track_id, genre, artist, albumartist, album, dummyalbum, composer, duplicate, albumtype, tracknumber, coverart, coverartid);
create index if not exists inxTrackNumbersGenreArtist on TrackNumbers (genre, artist, dummyalbum, duplicate, albumtype);
create index if not exists inxTrackNumbersGenreAlbumartist on TrackNumbers (genre, albumartist, dummyalbum, duplicate, albumtype);
create index if not exists inxTrackNumbersArtist on TrackNumbers (artist, dummyalbum, duplicate, albumtype);
create index if not exists inxTrackNumbersAlbumartist on TrackNumbers (albumartist, dummyalbum, duplicate, albumtype);
create index if not exists inxTrackNumbersComposer on TrackNumbers (composer, dummyalbum, duplicate, albumtype);
`)
	return err
}

// downCreateTagSyncSchema drops every table this migration created. It
// backs both a real rollback and the -r/--regenerate CLI flag, which
// runs this down then this up again to produce a byte-equivalent empty
// schema.
func downCreateTagSyncSchema(_ context.Context, tx *sql.Tx) error {
	tables := []string{
		"params", "wvlookup", "tracks", "albums", "albumsonly",
		"Artist", "Albumartist", "Composer", "Genre",
		"GenreArtist", "GenreAlbumartist",
		"GenreArtistAlbum", "GenreAlbumartistAlbum", "ArtistAlbum", "AlbumartistAlbum", "ComposerAlbum",
		"ArtistAlbumsonly", "AlbumartistAlbumsonly",
		"GenreArtistAlbumTrack", "GenreAlbumartistAlbumTrack", "ArtistAlbumTrack", "AlbumartistAlbumTrack", "ComposerAlbumTrack",
		"TrackNumbers",
	}
	for _, table := range tables {
		if _, err := tx.Exec(`drop table if exists ` + table); err != nil {
			return err
		}
	}
	return nil
}
