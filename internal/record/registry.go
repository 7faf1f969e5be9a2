package record

import (
	"reflect"

	"github.com/hashmap-kz/reactivectl/internal/weakmap"
)

// Registry owns the weak source->Wrapper cache and the callback surface
// (Host) Wrappers use to reach back into the engine. One Registry backs
// one engine.Manager.
type Registry struct {
	host  Host
	cache *weakmap.Map[*Wrapper]
}

// NewRegistry creates a Registry bound to host.
func NewRegistry(host Host) *Registry {
	return &Registry{host: host, cache: weakmap.New[*Wrapper]()}
}

// Observable returns the transparent wrapper for src. Per spec section 3's
// "only records/sequences are observed" rule, src is returned unchanged
// when it is nil, a func, or anything not satisfying Source; it is
// returned as-is when already a *Wrapper (idempotent double-wrap), and
// wrapping the same source twice always yields the identical *Wrapper.
func (r *Registry) Observable(src any) any {
	if src == nil {
		return src
	}
	if w, ok := src.(*Wrapper); ok {
		return w
	}
	if isFunc(src) {
		return src
	}
	s, ok := isRecordShaped(src)
	if !ok {
		return src
	}
	return r.wrap(s)
}

// IsObservable reports whether x is a Wrapper produced by a Registry.
func (r *Registry) IsObservable(x any) bool {
	_, ok := x.(*Wrapper)
	return ok
}

func (r *Registry) wrap(s Source) *Wrapper {
	return r.cache.LoadOrStore(s, func() *Wrapper {
		return &Wrapper{reg: r, src: s}
	})
}

func isFunc(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Func
}
