package model

// Set is an insertion-ordered collection of records deduplicated by
// normalized company name. The first record added for a name wins; later
// additions for the same name are dropped, not merged.
type Set struct {
	keys    []string
	records map[string]*Record
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{records: make(map[string]*Record)}
}

// Add inserts a record keyed by its normalized company name. If a record
// with the same key already exists, the existing record is returned and the
// new one is discarded. Records with an empty name are rejected.
func (s *Set) Add(r *Record) (*Record, bool) {
	key := NormalizeName(r.CompanyName)
	if key == "" {
		return nil, false
	}
	if existing, ok := s.records[key]; ok {
		return existing, false
	}
	s.records[key] = r
	s.keys = append(s.keys, key)
	return r, true
}

// Records returns all records in insertion order.
func (s *Set) Records() []*Record {
	out := make([]*Record, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.records[k])
	}
	return out
}

// Len returns the number of records.
func (s *Set) Len() int {
	return len(s.keys)
}

// Truncate keeps only the first n records. n <= 0 means no limit.
func (s *Set) Truncate(n int) {
	if n <= 0 || n >= len(s.keys) {
		return
	}
	for _, k := range s.keys[n:] {
		delete(s.records, k)
	}
	s.keys = s.keys[:n]
}
