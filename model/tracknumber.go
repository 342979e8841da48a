package model

import (
	"sort"
	"strconv"
	"strings"
)

// Tracknumber is the sum type `Present(i64) | Missing` called for in the
// design notes: the source stores a literal "n" inside the comma-joined
// tracknumbers list for a track with no usable number, and that sentinel
// must sort after every real number. We keep the two cases distinct in
// memory and serialize Missing to "n" only at the storage boundary.
type Tracknumber struct {
	Value   int
	Missing bool
}

// Present builds a Tracknumber holding a real track number.
func Present(n int) Tracknumber { return Tracknumber{Value: n} }

// MissingTracknumber is the "n" sentinel.
var MissingTracknumber = Tracknumber{Missing: true}

// ParseTracknumber converts the normalized tracknumber string produced by
// the value normalizer (empty after adjustment means missing).
func ParseTracknumber(s string) Tracknumber {
	if s == "" {
		return MissingTracknumber
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return MissingTracknumber
	}
	return Present(n)
}

// String serializes to the storage-boundary literal: digits, or "n".
func (t Tracknumber) String() string {
	if t.Missing {
		return "n"
	}
	return strconv.Itoa(t.Value)
}

// Less orders Present values numerically and places Missing after all of them.
func (t Tracknumber) Less(other Tracknumber) bool {
	switch {
	case t.Missing && other.Missing:
		return false
	case t.Missing:
		return false
	case other.Missing:
		return true
	default:
		return t.Value < other.Value
	}
}

// TracknumberList is the parsed form of an album's comma-separated
// tracknumbers column.
type TracknumberList []Tracknumber

// ParseTracknumberList parses the stored "1,2,n" form.
func ParseTracknumberList(s string) TracknumberList {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(TracknumberList, 0, len(parts))
	for _, p := range parts {
		if p == "n" {
			out = append(out, MissingTracknumber)
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			out = append(out, MissingTracknumber)
			continue
		}
		out = append(out, Present(n))
	}
	return out
}

// String renders back to the storage form, in ascending order.
func (l TracknumberList) String() string {
	parts := make([]string, len(l))
	for i, t := range l.Sorted() {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Sorted returns a copy of l ordered by Less, with Missing entries last.
func (l TracknumberList) Sorted() TracknumberList {
	out := make(TracknumberList, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Lowest returns the numerically-smallest Present entry, or Missing if
// the list is empty or holds only Missing entries.
func (l TracknumberList) Lowest() Tracknumber {
	if len(l) == 0 {
		return MissingTracknumber
	}
	lowest := l[0]
	for _, t := range l[1:] {
		if t.Less(lowest) {
			lowest = t
		}
	}
	return lowest
}

// Without returns a copy of l with the first occurrence of t removed.
func (l TracknumberList) Without(t Tracknumber) TracknumberList {
	out := make(TracknumberList, 0, len(l))
	removed := false
	for _, v := range l {
		if !removed && v == t {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}

// Contains reports whether t is present in l.
func (l TracknumberList) Contains(t Tracknumber) bool {
	for _, v := range l {
		if v == t {
			return true
		}
	}
	return false
}

// Union merges other into l, deduplicating and leaving the result sorted.
func (l TracknumberList) Union(other TracknumberList) TracknumberList {
	seen := make(map[Tracknumber]bool, len(l)+len(other))
	out := make(TracknumberList, 0, len(l)+len(other))
	for _, t := range append(append(TracknumberList{}, l...), other...) {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out.Sorted()
}
