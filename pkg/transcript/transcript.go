// Package transcript holds the ordered record of a conversation with an
// agent. It is the single source of truth for rendering: entries are only
// ever appended, never changed or removed, and every append is reported to
// observers in the order it happened.
package transcript

import (
	"context"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Observer is called once for each appended entry.
type Observer func(schema.Entry)

// Store is an append-only, insertion-ordered sequence of entries.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   []schema.Entry
	observers map[int]Observer
	order     []int
	nextID    int

	// notify serializes append+notify so observers see entries in order
	notify sync.Mutex
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates an empty transcript.
func New() *Store {
	return &Store{
		observers: make(map[int]Observer),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append adds an event to the end of the transcript and returns the stored
// entry. Local marks an entry synthesized on this side of the connection.
// Observers are called synchronously before Append returns; they must not
// call Append, Subscribe or Watch themselves.
func (s *Store) Append(event schema.Event, local bool) schema.Entry {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	entry := schema.Entry{
		ID:    uuid.New(),
		Index: len(s.entries),
		Time:  time.Now(),
		Local: local,
		Event: event,
	}
	s.entries = append(s.entries, entry)
	observers := s.observersLocked()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(entry)
	}
	return entry
}

// Entries returns a snapshot of the transcript. Later appends do not
// change a snapshot already returned.
func (s *Store) Entries() []schema.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]schema.Entry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// At returns the entry at position i.
func (s *Store) At(i int) (schema.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return schema.Entry{}, false
	}
	return s.entries[i], true
}

// Subscribe registers an observer for future appends and returns a
// function which removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.notify.Lock()
	defer s.notify.Unlock()
	return s.subscribe(fn)
}

// Watch returns a channel which receives every entry already in the
// transcript followed by each new one, in order. Entries are queued rather
// than dropped when the reader is slow. The channel is closed when ctx is
// done.
func (s *Store) Watch(ctx context.Context) <-chan schema.Entry {
	var (
		mu    sync.Mutex
		queue []schema.Entry
		wake  = make(chan struct{}, 1)
		ch    = make(chan schema.Entry)
	)

	// Snapshot and subscribe without an append in between
	s.notify.Lock()
	queue = s.Entries()
	cancel := s.subscribe(func(entry schema.Entry) {
		mu.Lock()
		queue = append(queue, entry)
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	s.notify.Unlock()

	go func() {
		defer close(ch)
		defer cancel()
		for {
			mu.Lock()
			if len(queue) == 0 {
				mu.Unlock()
				select {
				case <-ctx.Done():
					return
				case <-wake:
					continue
				}
			}
			entry := queue[0]
			queue[0] = schema.Entry{}
			queue = queue[1:]
			mu.Unlock()

			select {
			case ch <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// subscribe adds an observer; the caller holds s.notify.
func (s *Store) subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// observersLocked returns observers in registration order; the caller
// holds s.mu.
func (s *Store) observersLocked() []Observer {
	result := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.observers[id])
	}
	return result
}
