package model

// ResultSet accumulates one athlete's raw results. Year buckets are the
// source of truth; the merged view is derived from them. Not safe for
// concurrent use.
type ResultSet struct {
	ByYear ResultsByYear
	// Labels keeps the first literal label seen for each key.
	Labels map[string]string
}

// NewResultSet returns an empty, well-formed set.
func NewResultSet() *ResultSet {
	return &ResultSet{
		ByYear: make(ResultsByYear),
		Labels: make(map[string]string),
	}
}

// PutYear stores one year's bucket, replacing any bucket previously stored
// for that year. The bucket may be keyed by literal label or by key; entries
// without a label take the one they were filed under.
func (s *ResultSet) PutYear(year int, page EventBucket) {
	bucket := make(EventBucket, len(page))
	for _, label := range SortedKeys(page) {
		key := EventKey(label)
		if key == "" {
			continue
		}
		for _, e := range page[label] {
			if e.Label == "" {
				e.Label = label
			}
			if _, ok := s.Labels[key]; !ok {
				s.Labels[key] = e.Label
			}
			bucket[key] = append(bucket[key], e)
		}
	}
	s.ByYear[year] = bucket
}

// Label returns the display label for key, falling back to the key.
func (s *ResultSet) Label(key string) string {
	if l, ok := s.Labels[key]; ok && l != "" {
		return l
	}
	return key
}

// Merged builds the cross-year view, years ascending, each year's entries in
// bucket order. Every entry keeps its own literal label.
func (s *ResultSet) Merged() MergedEventBucket {
	merged := make(MergedEventBucket)
	for _, year := range s.ByYear.Years() {
		bucket := s.ByYear[year]
		for _, key := range SortedKeys(bucket) {
			for _, e := range bucket[key] {
				if e.Label == "" {
					e.Label = s.Label(key)
				}
				merged[key] = append(merged[key], MergedEntry{RawResultEntry: e, Year: year})
			}
		}
	}
	return merged
}

// Empty reports whether no year holds any entry.
func (s *ResultSet) Empty() bool {
	for _, b := range s.ByYear {
		if b.Len() > 0 {
			return false
		}
	}
	return true
}
