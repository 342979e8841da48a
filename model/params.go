package model

// Params is the single global row tracking how far ingestion has progressed.
type Params struct {
	Key            string `db:"key" structs:"key"`
	Lastmodified   int    `db:"lastmodified" structs:"lastmodified"`
	Lastscanstamp  int    `db:"lastscanstamp" structs:"lastscanstamp"`
	Lastscanid     int    `db:"lastscanid" structs:"lastscanid"`
	UseAlbumartist string `db:"use_albumartist" structs:"use_albumartist"`
	ShowDuplicates string `db:"show_duplicates" structs:"show_duplicates"`
	AlbumIdent     string `db:"album_identification" structs:"album_identification"`
}

// WVLookup maps a user-defined work/virtual name to the integer albumtype
// band-allocated for it (see conf.Config.WVLookup).
type WVLookup struct {
	WVType   string `db:"wvtype" structs:"wvtype"`
	WVNumber int    `db:"wvnumber" structs:"wvnumber"`
}
