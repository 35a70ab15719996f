// Package runner executes long-running cancellable operations.
package runner

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/yndnr/feedback-go/pkg/feedback"
)

// defaultShardCount balances lock contention against footprint for
// typical live-operation counts.
const defaultShardCount = 16

// Entry is one live operation as seen by the registry.
type Entry struct {
	Op       Operation
	Feedback *feedback.Feedback
	Started  time.Time
}

// Registry tracks live operations in a sharded map so lookups and
// cancellations from many goroutines do not serialize on one lock.
type Registry struct {
	shards    []*regShard
	shardMask uint64
	seed      maphash.Seed
}

type regShard struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		shards:    make([]*regShard, defaultShardCount),
		shardMask: defaultShardCount - 1,
		seed:      maphash.MakeSeed(),
	}
	for i := range r.shards {
		r.shards[i] = &regShard{items: make(map[string]Entry)}
	}
	return r
}

func (r *Registry) shard(id string) *regShard {
	return r.shards[maphash.String(r.seed, id)&r.shardMask]
}

func (r *Registry) add(op Operation, fb *feedback.Feedback) {
	s := r.shard(op.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[op.ID] = Entry{Op: op, Feedback: fb, Started: time.Now()}
}

func (r *Registry) remove(id string) {
	s := r.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Get returns the live entry for an operation ID.
func (r *Registry) Get(id string) (Entry, bool) {
	s := r.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	return e, ok
}

// Len returns the number of live operations.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Range calls fn for each live operation until fn returns false.
// Iteration order is unspecified.
func (r *Registry) Range(fn func(Entry) bool) {
	for _, s := range r.shards {
		s.mu.RLock()
		entries := make([]Entry, 0, len(s.items))
		for _, e := range s.items {
			entries = append(entries, e)
		}
		s.mu.RUnlock()

		for _, e := range entries {
			if !fn(e) {
				return
			}
		}
	}
}

// Cancel cancels one live operation by ID. It reports whether the
// operation was found; a found operation may already have observed an
// earlier cancel, which is a no-op.
func (r *Registry) Cancel(id string) bool {
	e, ok := r.Get(id)
	if !ok {
		return false
	}
	e.Feedback.Cancel()
	return true
}

// CancelAll cancels every live operation and returns how many were
// signaled.
func (r *Registry) CancelAll() int {
	n := 0
	r.Range(func(e Entry) bool {
		e.Feedback.Cancel()
		n++
		return true
	})
	return n
}
