// Package dedupe tracks idempotency keys of accepted submissions.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxSize bounds the number of remembered keys.
const DefaultMaxSize = 10000

// Deduper records idempotency keys to ensure a submission is applied at most once.
type Deduper interface {
	// SeenAndRecord atomically reports whether key was seen and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that a failed submission can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key  string
	seen time.Time
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest when
// full. A non-zero ttl also expires keys older than ttl.
type inMemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)

	if _, ok := d.index[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.index[key] = d.order.PushBack(entry{key: key, seen: now})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.index[key]; ok {
		d.remove(el)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// expire drops keys older than ttl. Caller holds d.mu.
func (d *inMemoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(entry).seen) < d.ttl {
			return
		}
		d.remove(el)
	}
}

func (d *inMemoryDeduper) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.index, el.Value.(entry).key)
	d.order.Remove(el)
}
