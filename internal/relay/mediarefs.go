package relay

import (
	"sync"
	"weak"
)

// MediaInstance is the engine-owned object a MediaHandle weakly refers
// to: one live instantiation of a mounted factory (GLOSSARY "Media
// instance"). The relay package never holds a strong reference to one
// outside the unprepare path.
type MediaInstance struct {
	Path     string
	Sessions int
}

// MediaHandle is a weak reference to a live MediaInstance (§3). Upgrade
// may succeed or fail depending on whether the engine still owns the
// instance.
type MediaHandle struct {
	ptr weak.Pointer[MediaInstance]
}

// NewMediaHandle wraps a live instance in a weak handle. The relay
// package never retains the strong pointer passed in.
func NewMediaHandle(instance *MediaInstance) MediaHandle {
	return MediaHandle{ptr: weak.Make(instance)}
}

// Upgrade attempts to recover a strong pointer to the instance. It
// returns ok=false once the engine has released its last strong
// reference, per the weak-only invariant (I3).
func (h MediaHandle) Upgrade() (instance *MediaInstance, ok bool) {
	instance = h.ptr.Value()
	return instance, instance != nil
}

// MediaRefMap is the path -> ordered sequence of weak media handles
// index (C3). It has its own mutex, never held jointly with the
// Registry's (§4.3, §5): when both are needed the caller must acquire
// this one first.
type MediaRefMap struct {
	mu     sync.Mutex
	byPath map[string][]MediaHandle
}

// NewMediaRefMap constructs an empty map.
func NewMediaRefMap() *MediaRefMap {
	return &MediaRefMap{byPath: make(map[string][]MediaHandle)}
}

// Append records a new handle observed for path, called from the
// engine's on-media-configure callback.
func (m *MediaRefMap) Append(path string, h MediaHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPath[path] = append(m.byPath[path], h)
}

// Handles returns a snapshot slice of the handles recorded for path.
// Stale entries for a removed mount are not cleaned here; the caller
// upgrades them and treats failures as absent.
func (m *MediaRefMap) Handles(path string) []MediaHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.byPath[path]
	out := make([]MediaHandle, len(src))
	copy(out, src)
	return out
}

// Clear drops all recorded handles for path, used once a mount has
// been fully torn down so stale entries don't accumulate forever.
func (m *MediaRefMap) Clear(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byPath, path)
}

// ActiveSessions counts live client sessions across handles for path
// that still upgrade, short-circuiting as soon as any activity is
// observed (§4.4 remove_if_idle step 1).
func (m *MediaRefMap) ActiveSessions(path string) int {
	for _, h := range m.Handles(path) {
		if inst, ok := h.Upgrade(); ok {
			if inst.Sessions > 0 {
				return inst.Sessions
			}
		}
	}
	return 0
}
