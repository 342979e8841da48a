// Package normalize implements the value normalizer: it
// turns a raw multi-value tag string into its display/filtered/list
// forms, and adjusts numeric and year fields into the shapes the
// synchronizer and schema expect.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/sonospy/movetags/conf"
)

// MultiSeparator is the primary separator multi-valued tags are joined
// on by the upstream scanner.
const MultiSeparator = "\n"

// MultiValue is the three parallel forms the normalizer produces for one
// tag value: full display form, filtered display form, and list form.
type MultiValue struct {
	Full     string   // full concatenated display form, before inclusion filtering
	Filtered string   // concatenated display form, after inclusion filtering
	List     []string // filtered list form
}

// Split implements the full pipeline: collapse/split on the primary
// separator, optionally re-split on the configured secondary separator,
// drop empties and control characters, apply the inclusion policy, and —
// for fields that take 'the' processing — rewrite leading "The ".
func Split(raw string, secondarySep string, inclusion conf.Inclusion, the conf.TheProcessing, applyThe bool) MultiValue {
	parts := strings.Split(collapseSeparator(raw), MultiSeparator)
	var entries []string
	for _, p := range parts {
		if secondarySep != "" {
			for _, sub := range strings.Split(p, secondarySep) {
				entries = append(entries, strings.TrimSpace(sub))
			}
		} else {
			entries = append(entries, strings.TrimSpace(p))
		}
	}

	entries = dropEmptyAndControl(entries)
	fullList := append([]string(nil), entries...)

	filteredList := applyInclusion(entries, inclusion)

	if applyThe {
		fullList = applyThePrefix(fullList, the)
		filteredList = applyThePrefix(filteredList, the)
	}

	return MultiValue{
		Full:     strings.Join(fullList, MultiSeparator),
		Filtered: strings.Join(filteredList, MultiSeparator),
		List:     filteredList,
	}
}

// collapseSeparator collapses runs of the primary separator to one and
// strips a trailing separator.
func collapseSeparator(s string) string {
	for strings.Contains(s, MultiSeparator+MultiSeparator) {
		s = strings.ReplaceAll(s, MultiSeparator+MultiSeparator, MultiSeparator)
	}
	return strings.TrimSuffix(s, MultiSeparator)
}

func dropEmptyAndControl(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = stripControl(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// stripControl removes Unicode control characters: everything below
// U+0020 plus DEL and the C1 range (the primary separator has already
// been split away by the time this runs).
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 {
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func applyInclusion(entries []string, inclusion conf.Inclusion) []string {
	switch inclusion {
	case conf.IncludeFirst:
		if len(entries) == 0 {
			return nil
		}
		return []string{entries[0]}
	case conf.IncludeLast:
		if len(entries) == 0 {
			return nil
		}
		return []string{entries[len(entries)-1]}
	default:
		return entries
	}
}

var theRe = regexp.MustCompile(`(?i)^the\s+`)

// applyThePrefix rewrites a leading "The " per the configured mode,
// excluding the literal "The The".
func applyThePrefix(entries []string, the conf.TheProcessing) []string {
	if the != conf.TheAfter && the != conf.TheRemove {
		return entries
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = rewriteThe(e, the)
	}
	return out
}

func rewriteThe(s string, the conf.TheProcessing) string {
	if strings.EqualFold(s, "The The") {
		return s
	}
	loc := theRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	rest := s[loc[1]:]
	switch the {
	case conf.TheAfter:
		return rest + ", The"
	case conf.TheRemove:
		return rest
	default:
		return s
	}
}

var yearDigits = regexp.MustCompile(`\d{4}`)

// Year parses a liberal year string into a proleptic-Gregorian ordinal
// date (year, 1, 1): try a full numeric parse first, then fall back to
// scanning for a 4-digit substring. Returns ok=false (and emits no
// value) when neither succeeds.
func Year(raw string) (ordinal int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(raw); err == nil && y > 0 {
		return toOrdinal(y), true
	}
	if loc := yearDigits.FindString(raw); loc != "" {
		y, err := strconv.Atoi(loc)
		if err == nil {
			return toOrdinal(y), true
		}
	}
	return 0, false
}

// toOrdinal returns the proleptic-Gregorian ordinal for Jan 1 of year,
// with day 1 being 0001-01-01 (matching Python's date.toordinal()).
func toOrdinal(year int) int {
	// Days before Jan 1 of `year` in the proleptic Gregorian calendar.
	y := year - 1
	return y*365 + y/4 - y/100 + y/400 + 1
}

// TruncateNumber clamps blank to blank; otherwise parses a leading
// integer and discards trailing non-numeric characters.
func TruncateNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	end := 0
	neg := false
	if len(raw) > 0 && raw[0] == '-' {
		neg = true
		end = 1
	}
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 || (neg && end == 1) {
		return ""
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

// AdjustTracknumber keeps the left side of a "N/total" value and strips
// leading zeros; an empty value stays empty.
func AdjustTracknumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	return TruncateNumber(raw)
}
