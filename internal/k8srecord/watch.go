package k8srecord

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/hashmap-kz/reactivectl/internal/engine"
	"github.com/hashmap-kz/reactivectl/internal/record"
)

// Watch drives a single dynamic.Interface watch stream for gvr (scoped to
// namespace, or cluster-wide when namespace is empty) entirely from the
// calling goroutine, turning every Added/Modified/Deleted event into
// Wrapper.Set/Delete calls and draining mgr after each one. This is what
// keeps the engine's single-executor model (spec section 5) intact even
// though the data source is a live, concurrently-updated cluster: the
// engine itself never sees more than one goroutine.
//
// onObject, if non-nil, runs after every Added/Modified event has been
// applied and the reaction pass has drained - the hook callers use to print
// something, not a second entry point into the engine.
func Watch(
	ctx context.Context,
	mgr *engine.Manager,
	dyn dynamic.Interface,
	gvr schema.GroupVersionResource,
	namespace string,
	onObject func(*unstructured.Unstructured),
) error {
	var ri dynamic.ResourceInterface = dyn.Resource(gvr)
	if namespace != "" {
		ri = dyn.Resource(gvr).Namespace(namespace)
	}

	w, err := ri.Watch(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	defer w.Stop()

	byUID := map[types.UID]*Source{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.ResultChan():
			if !ok {
				return nil
			}
			u, ok := ev.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}

			var applied *unstructured.Unstructured
			switch ev.Type {
			case watch.Added, watch.Modified:
				src, wrapper := observe(mgr, byUID, u)
				applyFields(wrapper, src, u)
				applied = u
			case watch.Deleted:
				if src, ok := byUID[u.GetUID()]; ok {
					wrapper := mgr.Observable(src).(*record.Wrapper) //nolint:forcetypeassert
					for _, k := range src.Keys() {
						wrapper.Delete(k)
					}
					delete(byUID, u.GetUID())
				}
			}

			if err := mgr.Drain(); err != nil {
				return err
			}
			if applied != nil && onObject != nil {
				onObject(applied)
			}
		}
	}
}

func observe(mgr *engine.Manager, byUID map[types.UID]*Source, u *unstructured.Unstructured) (*Source, *record.Wrapper) {
	src, ok := byUID[u.GetUID()]
	if !ok {
		src = New(&unstructured.Unstructured{Object: map[string]any{}})
		byUID[u.GetUID()] = src
	}
	wrapper := mgr.Observable(src).(*record.Wrapper) //nolint:forcetypeassert
	return src, wrapper
}

// applyFields pushes every field of newObj through wrapper.Set (so writes go
// through the normal invalidation path) and deletes fields src previously
// had that newObj no longer does.
func applyFields(wrapper *record.Wrapper, src *Source, newObj *unstructured.Unstructured) {
	old := src.Object()
	for k, v := range newObj.Object {
		wrapper.Set(k, v)
	}
	for k := range old.Object {
		if _, ok := newObj.Object[k]; !ok {
			wrapper.Delete(k)
		}
	}
}
