package detect

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WindowEntry is one recorded occurrence inside a sliding window.
type WindowEntry struct {
	Timestamp time.Time
	EventID   string
}

// windowQueue is a double-ended queue of entries ordered by insertion.
// Appending the newest entry and evicting the oldest expired entries are
// both amortized O(1); storage is reclaimed once the head offset grows
// past half the backing slice.
type windowQueue struct {
	entries []WindowEntry
	head    int
}

func (q *windowQueue) push(e WindowEntry) {
	q.entries = append(q.entries, e)
}

// prune drops entries older than now-window from the front. Entries are
// time-ordered under the engine's per-key serialization guarantee, so
// eviction stops at the first retained entry.
func (q *windowQueue) prune(now time.Time, window time.Duration) {
	for q.head < len(q.entries) && now.Sub(q.entries[q.head].Timestamp) > window {
		q.head++
	}
	if q.head > len(q.entries)/2 && q.head > 32 {
		q.entries = append([]WindowEntry(nil), q.entries[q.head:]...)
		q.head = 0
	}
}

func (q *windowQueue) len() int {
	return len(q.entries) - q.head
}

func (q *windowQueue) live() []WindowEntry {
	return q.entries[q.head:]
}

// WindowStore tracks sliding-time-window state keyed by an arbitrary
// string. The number of distinct keys is bounded by an LRU that evicts
// the least-recently-touched key, so steady low-traffic keys (rarely-seen
// source IPs) cannot grow state without bound. Not safe for concurrent
// use; each engine shard owns its store exclusively.
type WindowStore struct {
	queues *lru.Cache[string, *windowQueue]
}

// NewWindowStore creates a window store holding at most maxKeys keys.
// onEvict, when non-nil, is told about every key leaving the store so
// callers can discard related per-key state (suppression arming).
func NewWindowStore(maxKeys int, onEvict func(key string)) (*WindowStore, error) {
	cache, err := lru.NewWithEvict[string, *windowQueue](maxKeys, func(key string, _ *windowQueue) {
		if onEvict != nil {
			onEvict(key)
		}
	})
	if err != nil {
		return nil, err
	}
	return &WindowStore{queues: cache}, nil
}

// Record appends an occurrence for key.
func (ws *WindowStore) Record(key string, entry WindowEntry) {
	q, ok := ws.queues.Get(key)
	if !ok {
		q = &windowQueue{}
		ws.queues.Add(key, q)
	}
	q.push(entry)
}

// Count prunes expired entries for key and returns the number retained.
// After pruning, every retained entry t satisfies now - t <= window.
func (ws *WindowStore) Count(key string, now time.Time, window time.Duration) int {
	q, ok := ws.queues.Get(key)
	if !ok {
		return 0
	}
	q.prune(now, window)
	if q.len() == 0 {
		ws.queues.Remove(key)
		return 0
	}
	return q.len()
}

// Prune evicts expired entries for key, deleting the key once empty.
func (ws *WindowStore) Prune(key string, now time.Time, window time.Duration) {
	if q, ok := ws.queues.Peek(key); ok {
		q.prune(now, window)
		if q.len() == 0 {
			ws.queues.Remove(key)
		}
	}
}

// Entries prunes and returns the retained entries for key, oldest first.
// The returned slice is valid until the next Record for the key.
func (ws *WindowStore) Entries(key string, now time.Time, window time.Duration) []WindowEntry {
	q, ok := ws.queues.Get(key)
	if !ok {
		return nil
	}
	q.prune(now, window)
	if q.len() == 0 {
		ws.queues.Remove(key)
		return nil
	}
	return q.live()
}

// Keys returns the number of keys currently tracked.
func (ws *WindowStore) Keys() int {
	return ws.queues.Len()
}
