// Package conf loads scan.ini: the user-configurable naming and
// inclusion rules fed to the value normalizer, the name-format
// evaluator and the tag synchronizer. It is built once per run and
// passed by reference through every call — there is no global
// singleton.
package conf

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	_ "github.com/go-viper/encoding/ini" // registers the "ini" config codec with viper
)

// TheProcessing selects how a leading "The " is rewritten.
type TheProcessing string

const (
	TheBefore TheProcessing = "before" // keep as-is
	TheAfter  TheProcessing = "after"  // "Beatles, The"
	TheRemove TheProcessing = "remove" // "Beatles"
)

// Inclusion selects which of several multi-valued entries survive.
type Inclusion string

const (
	IncludeAll   Inclusion = "all"
	IncludeFirst Inclusion = "first"
	IncludeLast  Inclusion = "last"
)

// NamedFormat is one [work name format] / [virtual name format] entry:
// a display-name template bound to the integer albumtype allocated for it.
type NamedFormat struct {
	Name      string
	Template  string
	Albumtype int
}

// Config is the immutable, fully-resolved set of user rules for one run.
type Config struct {
	TheProcessing        TheProcessing
	MultiFieldSeparator  string
	IncludeAlbum         Inclusion
	IncludeArtist        Inclusion
	IncludeAlbumartist   Inclusion
	IncludeComposer      Inclusion
	IncludeGenre         Inclusion
	PreferFolderart      bool
	SeparateAlbumList    []string
	LookupNameDict       map[string]string // underscore-prefixed substitution placeholders
	WorkFormats          []NamedFormat
	VirtualFormats       []NamedFormat
	WVLookup             map[string]int // name -> albumtype, written to the wvlookup table
}

const (
	defaultWorkAlbumtype    = 200
	defaultVirtualAlbumtype = 100
	workAlbumtypeStart      = 201
	virtualAlbumtypeStart   = 101
)

// Load reads the scan.ini file at path and resolves it into a Config.
// theOverride, if non-empty, overrides the ini's the_processing setting
// (the CLI's -t flag takes precedence).
func Load(path string, theOverride string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{
		TheProcessing:       TheRemove,
		IncludeAlbum:        IncludeAll,
		IncludeArtist:       IncludeAll,
		IncludeAlbumartist:  IncludeAll,
		IncludeComposer:     IncludeAll,
		IncludeGenre:        IncludeAll,
		LookupNameDict:      map[string]string{},
		WVLookup:            map[string]int{"_ALBUM": int(10)},
	}

	if theOverride != "" {
		cfg.TheProcessing = TheProcessing(strings.ToLower(theOverride))
	} else if s := v.GetString("movetags.the_processing"); s != "" {
		cfg.TheProcessing = TheProcessing(strings.ToLower(s))
	}

	cfg.MultiFieldSeparator = v.GetString("movetags.multiple_tag_separator")

	cfg.IncludeAlbum = parseInclusion(v.GetString("movetags.include_album"))
	cfg.IncludeArtist = parseInclusion(v.GetString("movetags.include_artist"))
	cfg.IncludeAlbumartist = parseInclusion(v.GetString("movetags.include_albumartist"))
	cfg.IncludeComposer = parseInclusion(v.GetString("movetags.include_composer"))
	cfg.IncludeGenre = parseInclusion(v.GetString("movetags.include_genre"))

	cfg.PreferFolderart = strings.EqualFold(v.GetString("movetags.prefer_folderart"), "y")

	cfg.SeparateAlbumList = splitOnComma(v.GetString("movetags.separate_album_list"))

	workEntries, err := readOrderedSection(path, "work name format")
	if err != nil {
		return nil, err
	}
	virtualEntries, err := readOrderedSection(path, "virtual name format")
	if err != nil {
		return nil, err
	}

	cfg.WorkFormats = append(cfg.WorkFormats, NamedFormat{Name: "_DEFAULT_WORK", Template: `"%s - %s - %s" % (composer, work, artist)`, Albumtype: defaultWorkAlbumtype})
	cfg.WVLookup["_DEFAULT_WORK"] = defaultWorkAlbumtype
	next := workAlbumtypeStart
	for _, e := range workEntries {
		if strings.HasPrefix(e.Key, "_") {
			cfg.LookupNameDict[e.Key] = e.Value
			continue
		}
		cfg.WorkFormats = append(cfg.WorkFormats, NamedFormat{Name: e.Key, Template: e.Value, Albumtype: next})
		cfg.WVLookup[e.Key] = next
		next++
	}

	cfg.VirtualFormats = append(cfg.VirtualFormats, NamedFormat{Name: "_DEFAULT_VIRTUAL", Template: `"%s" % (virtual)`, Albumtype: defaultVirtualAlbumtype})
	cfg.WVLookup["_DEFAULT_VIRTUAL"] = defaultVirtualAlbumtype
	next = virtualAlbumtypeStart
	for _, e := range virtualEntries {
		if strings.HasPrefix(e.Key, "_") {
			cfg.LookupNameDict[e.Key] = e.Value
			continue
		}
		cfg.VirtualFormats = append(cfg.VirtualFormats, NamedFormat{Name: e.Key, Template: e.Value, Albumtype: next})
		cfg.WVLookup[e.Key] = next
		next++
	}

	return cfg, nil
}

func parseInclusion(s string) Inclusion {
	switch Inclusion(strings.ToLower(s)) {
	case IncludeFirst:
		return IncludeFirst
	case IncludeLast:
		return IncludeLast
	default:
		return IncludeAll
	}
}

// splitOnComma splits a comma list where a literal comma inside a name
// may be escaped as `\,`.
func splitOnComma(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(out) > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}
