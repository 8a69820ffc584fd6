package core

import (
	"sort"
	"strings"
)

// SearchFilter is a flat mapping of scalar field name to scalar value used to
// narrow a namespace query. Filters never contain nested structures and only
// express equality.
type SearchFilter map[string]string

// Clone returns an independent copy of the filter.
func (f SearchFilter) Clone() SearchFilter {
	cp := make(SearchFilter, len(f))
	for k, v := range f {
		cp[k] = v
	}
	return cp
}

// Encode renders the filter as a canonical "k=v&k=v" string with sorted keys.
// Identical filters always encode to identical strings, which makes the
// encoding usable as a cache key component.
func (f SearchFilter) Encode() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(f[k])
	}
	return b.String()
}

// Matches reports whether every filter field equals the corresponding scalar
// in the metadata. Used by in-process store implementations.
func (f SearchFilter) Matches(m Metadata) bool {
	for k, want := range f {
		if m.String(k) != want {
			return false
		}
	}
	return true
}
