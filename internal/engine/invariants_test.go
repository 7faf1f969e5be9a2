package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/reactivectl/internal/engine"
	"github.com/hashmap-kz/reactivectl/internal/record"
)

// Observable(S) == Observable(S) and Observable(Observable(S)) ==
// Observable(S), across every source shape the module ships.
func TestInvariant_ObservableIdentityAcrossSourceShapes(t *testing.T) {
	mgr := engine.NewManager()

	sources := map[string]any{
		"map":      record.NewMap(map[string]any{"a": 1}),
		"emptyMap": record.NewMap(nil),
		"slice":    record.NewSlice([]any{1, 2, 3}),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			w := mgr.Observable(src)
			assert.Same(t, w, mgr.Observable(src))
			assert.Same(t, w, mgr.Observable(w))
		})
	}
}

// Reading a record/sequence value through a wrapper yields an observable;
// reading a primitive or callable yields the value itself.
func TestInvariant_NestedReadsWrapOnlyRecordShapes(t *testing.T) {
	mgr := engine.NewManager()

	inner := record.NewMap(map[string]any{"x": 1})
	items := record.NewSlice([]any{"first"})
	src := record.NewMap(map[string]any{
		"child": inner,
		"items": items,
		"n":     42,
		"s":     "str",
		"fn":    func() {},
	})
	w := mgr.Observable(src).(*record.Wrapper)

	assert.True(t, mgr.IsObservable(w.Get("child")))
	assert.True(t, mgr.IsObservable(w.Get("items")))
	assert.False(t, mgr.IsObservable(w.Get("n")))
	assert.False(t, mgr.IsObservable(w.Get("s")))
	assert.False(t, mgr.IsObservable(w.Get("fn")))
}

// The number of executions of a computed getter equals the number of
// demands that followed a relevant invalidation - never more.
func TestInvariant_ComputedRunsOncePerInvalidatedDemand(t *testing.T) {
	mgr := engine.NewManager()
	src := record.NewMap(map[string]any{"a": 1, "b": 2, "unrelated": 0})
	d := mgr.Observable(src).(*record.Wrapper)

	runs := 0
	mgr.Computed(src, "sum", func(ctx any) any {
		runs++
		w := ctx.(*record.Wrapper)
		return w.Get("a").(int) + w.Get("b").(int)
	}, nil)

	demandsAfterInvalidation := 0

	demand := func() {
		_ = d.Get("sum")
	}

	demand() // first demand counts: the updatable starts invalid
	demandsAfterInvalidation++
	demand() // memoized
	demand() // memoized

	d.Set("a", 5) // relevant invalidation
	demand()
	demandsAfterInvalidation++
	demand() // memoized again

	d.Set("unrelated", 9) // irrelevant: getter never read it
	demand()

	d.Set("b", 2) // equal value: no invalidation at all
	demand()

	assert.Equal(t, demandsAfterInvalidation, runs)
}

// A write that sets a key to a referentially-equal value triggers zero
// invalidations - except sequence "length", which always takes effect.
func TestInvariant_EqualWriteIsSilentExceptSequenceLength(t *testing.T) {
	mgr := engine.NewManager(record.WithImmediateReaction(true))

	rec := record.NewMap(map[string]any{"a": 1})
	seq := record.NewSlice([]any{1, 2})
	rw := mgr.Observable(rec).(*record.Wrapper)
	sw := mgr.Observable(seq).(*record.Wrapper)

	recFires, seqFires := 0, 0
	mgr.Reaction(func(any) any {
		recFires++
		_ = rw.Get("a")
		return nil
	}, true)
	mgr.Reaction(func(any) any {
		seqFires++
		_ = sw.Get("length")
		return nil
	}, true)
	require.Equal(t, 1, recFires)
	require.Equal(t, 1, seqFires)

	rw.Set("a", 1) // same value: silent
	assert.Equal(t, 1, recFires)

	sw.Set("length", 2) // same length: still fires
	assert.Equal(t, 2, seqFires)
}

// A write to an inherited key invalidates exactly those derivations whose
// most recent read did not find the key on a closer descendant.
func TestInvariant_InheritedWriteSkipsShadowedReaders(t *testing.T) {
	mgr := engine.NewManager(record.WithPrototypes(true), record.WithImmediateReaction(true))

	parent := record.NewMap(map[string]any{"color": "red"})
	plain := record.NewMap(nil)
	shadowing := record.NewMap(map[string]any{"color": "blue"})
	plain.SetPrototype(parent)
	shadowing.SetPrototype(parent)

	p := mgr.Observable(parent).(*record.Wrapper)
	pw := mgr.Observable(plain).(*record.Wrapper)
	sw := mgr.Observable(shadowing).(*record.Wrapper)

	plainFires, shadowedFires := 0, 0
	mgr.Reaction(func(any) any {
		plainFires++
		_ = pw.Get("color")
		return nil
	}, true)
	mgr.Reaction(func(any) any {
		shadowedFires++
		_ = sw.Get("color")
		return nil
	}, true)
	require.Equal(t, 1, plainFires)
	require.Equal(t, 1, shadowedFires)

	p.Set("color", "green")
	assert.Equal(t, 2, plainFires, "the inheriting reader must fire")
	assert.Equal(t, 1, shadowedFires, "the reader with a closer override must not")
}
