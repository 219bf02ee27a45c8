package relay

import (
	"sync"
	"time"
)

// Registry is the authoritative in-memory table of streams (C2). All
// mutating operations are serialized behind a single mutex; list() takes
// the same mutex but releases it before returning its copy, so the lock
// is never held across an engine call.
type Registry struct {
	mu      sync.Mutex
	streams map[string]Stream
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]Stream)}
}

// Insert adds a new Stream record, failing with a duplicate-id error if
// the id is already present (§4.2).
func (r *Registry) Insert(s Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[s.ID]; exists {
		return UserInput("registry.insert", "duplicate stream id: "+s.ID, nil)
	}
	r.streams[s.ID] = s
	return nil
}

// Remove deletes the stream with the given id, returning it, or a
// NotFound error if no such id is registered.
func (r *Registry) Remove(id string) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.streams[id]
	if !exists {
		return Stream{}, NotFound("registry.remove", "stream not registered: "+id, nil)
	}
	delete(r.streams, id)
	return s, nil
}

// Get returns a snapshot of the stream with the given id.
func (r *Registry) Get(id string) (Stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.streams[id]
	return s, exists
}

// List returns a snapshot copy of every registered stream, safe to
// iterate without holding the registry's lock.
func (r *Registry) List() []Stream {
	r.mu.Lock()
	out := make([]Stream, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, s)
	}
	r.mu.Unlock()
	return out
}

// FindExpired returns the ids of every stream whose expiration is
// At(t) with t <= now. Permanent (Never) streams are never returned.
func (r *Registry) FindExpired(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, s := range r.streams {
		if t, ok := s.Expiration.Time(); ok && !t.After(now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len reports the number of registered streams, used by the health
// surface to report registry size without exposing the table itself.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
