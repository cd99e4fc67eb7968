package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// placeholder values some providers return instead of omitting a field.
var placeholders = map[string]struct{}{
	"n/a":     {},
	"na":      {},
	"null":    {},
	"none":    {},
	"unknown": {},
	"-":       {},
}

// IsEmpty reports whether a field value counts as unset: blank after
// trimming, or a known placeholder.
func IsEmpty(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := placeholders[strings.ToLower(v)]
	return ok
}

// FillMissing merges incoming field values into a record under the
// fill-if-empty policy: a field is written only when its current value is
// empty, only for keys listed in allowed, and never for identity fields.
// Keys outside allowed are ignored even when present in fields, which keeps
// the merge schema-constrained. Returns the number of fields written.
func FillMissing(r *Record, fields map[string]string, allowed []string) int {
	filled := 0
	for _, key := range allowed {
		v, ok := fields[key]
		if !ok || IsEmpty(v) {
			continue
		}
		ref := r.fieldRef(key)
		if ref == nil || !IsEmpty(*ref) {
			continue
		}
		*ref = strings.TrimSpace(v)
		filled++
	}
	return filled
}

// NormalizeName produces the dedup key for a company name: NFKC-normalized,
// lowercased, with whitespace runs collapsed to single spaces.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), " ")
}
