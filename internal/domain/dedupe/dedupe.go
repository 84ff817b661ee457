// Package dedupe tracks page submissions already accepted so that a replayed
// submission is not ingested twice.
package dedupe

import (
	"container/list"
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// submissionSpace namespaces name-based submission IDs.
var submissionSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("palmares:submission"))

// SubmissionID derives a stable ID from an athlete, a season and the page
// contents. Identical submissions always get the same ID.
func SubmissionID(athleteID string, year int, pages []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(athleteID))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(year))
	for _, p := range pages {
		b.WriteByte(0)
		b.WriteString(p)
	}
	return uuid.NewSHA1(submissionSpace, []byte(b.String())).String()
}

// Deduper records seen submission IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen, recording it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so that a submission rejected downstream (for
	// example by queue backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps IDs in insertion order. When bounded, the oldest ID
// is evicted first. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			oldest := d.order.Front()
			d.order.Remove(oldest)
			delete(d.seen, oldest.Value.(string))
		}
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
