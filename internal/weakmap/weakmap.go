// Package weakmap implements a map keyed by object identity that does not
// keep its keys alive. Once a key becomes unreachable from anywhere else,
// its entry is dropped automatically via a finalizer.
//
// This backs the engine's source->wrapper and host->Updatable caches
// (spec section 5's "weakly keyed" resource policy): neither cache should
// be the reason a user's data or a derivation's host object stays resident.
package weakmap

import (
	"reflect"
	"runtime"
	"sync"
)

// Map associates values with pointer-identity keys. Only plain pointers
// are accepted — runtime.SetFinalizer takes nothing else — and any other
// key kind falls back to uncached creation in LoadOrStore: callers must
// observe only pointer-typed sources, which every record.Source and
// engine host in this module is by construction.
type Map[V any] struct {
	mu sync.Mutex
	m  map[uintptr]V
}

// New creates an empty weak map.
func New[V any]() *Map[V] {
	return &Map[V]{m: make(map[uintptr]V)}
}

func identity(key any) (uintptr, bool) {
	if key == nil {
		return 0, false
	}
	v := reflect.ValueOf(key)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return 0, false
	}
	return v.Pointer(), true
}

// Load returns the value stored for key, if any.
func (m *Map[V]) Load(key any) (V, bool) {
	var zero V
	addr, ok := identity(key)
	if !ok {
		return zero, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[addr]
	return v, ok
}

// LoadOrStore returns the existing value for key, or calls create and
// stores its result. A finalizer on key removes the entry once key is
// collected, so the map never keeps key reachable.
func (m *Map[V]) LoadOrStore(key any, create func() V) V {
	addr, ok := identity(key)
	if !ok {
		return create()
	}

	m.mu.Lock()
	if v, ok := m.m[addr]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v := create()

	m.mu.Lock()
	if existing, ok := m.m[addr]; ok {
		m.mu.Unlock()
		return existing
	}
	m.m[addr] = v
	m.mu.Unlock()

	runtime.SetFinalizer(key, func(any) {
		m.mu.Lock()
		delete(m.m, addr)
		m.mu.Unlock()
	})

	return v
}

// Delete removes the entry for key, if present.
func (m *Map[V]) Delete(key any) {
	addr, ok := identity(key)
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.m, addr)
	m.mu.Unlock()
}

// Len reports the number of live entries. Intended for diagnostics/tests
// only — under concurrent finalizer activity the count is a snapshot.
func (m *Map[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}
