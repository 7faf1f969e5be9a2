// Package k8srecord adapts Kubernetes manifests into engine-observable
// sources: a concrete, realistic record shape (*unstructured.Unstructured)
// that exercises internal/record's observation layer beyond bare Go maps,
// plus the machinery to load manifests from disk/URL and follow a live
// cluster's watch stream.
package k8srecord

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hashmap-kz/reactivectl/internal/record"
	"github.com/hashmap-kz/reactivectl/internal/weakmap"
)

// Source adapts a *unstructured.Unstructured into a record.Source. Observed
// keys are the object's top-level fields (apiVersion, kind, metadata, spec,
// status, ...); nested map/slice content is returned verbatim rather than
// wrapped again, because unstructured's inner maps are plain
// map[string]interface{} values with no stable Go identity to hang a nested
// Wrapper off of (every read of the same field returns the same map, but a
// freshly-allocated Go type wrapping it would not be the same *Wrapper
// across calls). Object-granularity observation is enough to exercise
// fine-grained per-key invalidation and the whole-object/deep watches; see
// DESIGN.md.
type Source struct {
	obj *unstructured.Unstructured
}

var _ record.Source = (*Source)(nil)

// New adapts obj. Prefer Wrap over calling New directly: two distinct
// *Source values wrapping the same object are, by construction, two
// distinct record.Source identities, which would defeat the engine's
// stable-wrapper-per-source guarantee.
func New(obj *unstructured.Unstructured) *Source {
	return &Source{obj: obj}
}

var sources = weakmap.New[*Source]()

// Wrap returns the Source for obj, creating and caching one on first use so
// repeated calls for the same manifest yield the identical *Source - and
// therefore, once passed through Manager.Observable, the identical
// *record.Wrapper.
func Wrap(obj *unstructured.Unstructured) *Source {
	return sources.LoadOrStore(obj, func() *Source { return New(obj) })
}

// Object returns the underlying manifest.
func (s *Source) Object() *unstructured.Unstructured { return s.obj }

func (s *Source) Get(key record.Key) (any, bool) {
	k, ok := key.(string)
	if !ok {
		return nil, false
	}
	v, ok := s.obj.Object[k]
	return v, ok
}

func (s *Source) Set(key record.Key, value any) {
	k, ok := key.(string)
	if !ok {
		return
	}
	if s.obj.Object == nil {
		s.obj.Object = map[string]any{}
	}
	s.obj.Object[k] = value
}

func (s *Source) Delete(key record.Key) {
	k, ok := key.(string)
	if !ok {
		return
	}
	delete(s.obj.Object, k)
}

func (s *Source) Keys() []record.Key {
	keys := make([]record.Key, 0, len(s.obj.Object))
	for k := range s.obj.Object {
		keys = append(keys, k)
	}
	return keys
}
