// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strings"
)

// RawResultEntry is one archive row as text. Label is the event label as
// printed, before sanitization; entries are grouped by the sanitized key.
type RawResultEntry struct {
	Label       string `json:"label,omitempty"`
	Date        string `json:"date"`
	Performance string `json:"performance"`
	Wind        string `json:"wind,omitempty"`
	Round       string `json:"round,omitempty"`
	Placement   string `json:"placement,omitempty"`
	Level       string `json:"level,omitempty"`
	Points      string `json:"points,omitempty"`
	Venue       string `json:"venue,omitempty"`
}

// Mark returns the performance text.
func (e RawResultEntry) Mark() string { return e.Performance }

// RowCells is the number of positional cells a result row must carry.
const RowCells = 9

// RawResultRow names the positional cells of one archive table row.
// RowFromCells is the only place where position maps to field.
type RawResultRow struct {
	Date        string
	Event       string
	Performance string
	Wind        string
	Round       string
	Placement   string
	Level       string
	Points      string
	Venue       string
}

// RowFromCells maps ordered cell values onto a RawResultRow. It reports false
// when fewer than RowCells values are present; extra cells are ignored.
func RowFromCells(cells []string) (RawResultRow, bool) {
	if len(cells) < RowCells {
		return RawResultRow{}, false
	}
	return RawResultRow{
		Date:        cells[0],
		Event:       cells[1],
		Performance: cells[2],
		Wind:        cells[3],
		Round:       cells[4],
		Placement:   cells[5],
		Level:       cells[6],
		Points:      cells[7],
		Venue:       cells[8],
	}, true
}

// Entry converts the row, keeping its literal label on the entry.
func (r RawResultRow) Entry() RawResultEntry {
	return RawResultEntry{
		Label:       r.Event,
		Date:        r.Date,
		Performance: r.Performance,
		Wind:        r.Wind,
		Round:       r.Round,
		Placement:   r.Placement,
		Level:       r.Level,
		Points:      r.Points,
		Venue:       r.Venue,
	}
}

// EventBucket maps an event label or key to its entries in document order.
type EventBucket map[string][]RawResultEntry

// Append concatenates other into b, preserving each list's order.
func (b EventBucket) Append(other EventBucket) {
	for label, entries := range other {
		b[label] = append(b[label], entries...)
	}
}

// Len returns the total number of entries across all events.
func (b EventBucket) Len() int {
	n := 0
	for _, entries := range b {
		n += len(entries)
	}
	return n
}

// MergedEntry is a raw entry tagged with its source year.
type MergedEntry struct {
	RawResultEntry
	Year int `json:"year"`
}

// MergedEventBucket maps an event key to its entries across all years.
type MergedEventBucket map[string][]MergedEntry

// ResultsByYear is the two-level year -> event key -> entries container.
type ResultsByYear map[int]EventBucket

// Years returns the years present in ascending order.
func (r ResultsByYear) Years() []int {
	years := make([]int, 0, len(r))
	for y := range r {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// keySeparators collide with nested document path separators.
var keySeparators = strings.NewReplacer(
	".", "_",
	"/", "_",
	"[", "_",
	"]", "_",
	"#", "_",
	"$", "_",
	"*", "_",
	"~", "_",
)

// EventKey sanitizes an event label into a collision-safe key.
func EventKey(label string) string {
	return keySeparators.Replace(strings.TrimSpace(label))
}

// SortedKeys returns the keys of a bucket in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
