package record_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/reactivectl/internal/record"
)

// fakeHost is the minimal record.Host a test needs: consumer, when a test
// sets it, is reported as the currently executing consumer (so reads
// register it), and every invalidation/schedule call is just recorded for
// assertions.
type fakeHost struct {
	opts          record.Options
	consumer      record.Consumer
	invalidated   []record.Consumer
	scheduleCalls int
}

func newFakeHost() *fakeHost {
	return &fakeHost{opts: record.DefaultOptions()}
}

func (h *fakeHost) Options() record.Options { return h.opts }

func (h *fakeHost) CurrentConsumer() (record.Consumer, bool) {
	if h.consumer == nil {
		return nil, false
	}
	return h.consumer, true
}

func (h *fakeHost) Invalidate(c record.Consumer) { h.invalidated = append(h.invalidated, c) }

func (h *fakeHost) ScheduleReactionPass() { h.scheduleCalls++ }

// fakeConsumer is a minimal record.Consumer for exercising subscription
// bookkeeping directly, without pulling in the engine package.
type fakeConsumer struct {
	uninits []func()
}

func (c *fakeConsumer) AddUninit(fn func()) { c.uninits = append(c.uninits, fn) }

func (c *fakeConsumer) runUninits() {
	for _, fn := range c.uninits {
		fn()
	}
	c.uninits = nil
}

func TestObservable_StableIdentity(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	src := record.NewMap(map[string]any{"a": 1})
	w1 := reg.Observable(src)
	w2 := reg.Observable(src)

	assert.Same(t, w1, w2, "wrapping the same source twice must return the identical wrapper")
}

func TestObservable_IdempotentDoubleWrap(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	src := record.NewMap(nil)
	w := reg.Observable(src)
	again := reg.Observable(w)

	assert.Same(t, w, again)
}

func TestObservable_OnlyRecordsAndSequencesWrapped(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	cases := []any{42, "str", nil, func() {}, true}
	for _, v := range cases {
		got := reg.Observable(v)
		if reflect.ValueOf(v).Kind() == reflect.Func {
			// assert.Equal rejects func arguments; compare code pointers.
			assert.Equal(t, reflect.ValueOf(v).Pointer(), reflect.ValueOf(got).Pointer())
		} else {
			assert.Equal(t, v, got)
		}
		assert.False(t, reg.IsObservable(got))
	}
}

func TestWrapper_DataSourceKeyReturnsSource(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	src := record.NewMap(map[string]any{"a": 1})
	w := reg.Observable(src).(*record.Wrapper)

	got := w.Get(host.opts.DataSourceKey)
	assert.Same(t, src, got)
}

func TestWrapper_GetSet_PassThrough(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	w := reg.Observable(record.NewMap(nil)).(*record.Wrapper)
	w.Set("name", "ann")
	assert.Equal(t, "ann", w.Get("name"))

	w.Delete("name")
	assert.Nil(t, w.Get("name"))
}

func TestWrapper_NestedValuesAreWrapped(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)

	inner := record.NewMap(map[string]any{"x": 1})
	outer := record.NewMap(map[string]any{"child": inner})
	w := reg.Observable(outer).(*record.Wrapper)

	childView := w.Get("child")
	require.True(t, reg.IsObservable(childView))
	assert.Equal(t, 1, childView.(*record.Wrapper).Get("x"))
}

func TestWrapper_NoopWriteOfEqualValue(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	w := reg.Observable(record.NewMap(map[string]any{"a": 1})).(*record.Wrapper)
	_ = w.Get("a") // registers consumer against "a"

	host.scheduleCalls = 0
	w.Set("a", 1) // referentially equal, must not invalidate or schedule

	assert.Empty(t, host.invalidated)
	assert.Zero(t, host.scheduleCalls)
}

func TestWrapper_WriteOfDifferentValueInvalidates(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	w := reg.Observable(record.NewMap(map[string]any{"a": 1})).(*record.Wrapper)
	_ = w.Get("a")

	w.Set("a", 2)

	assert.Equal(t, []record.Consumer{consumer}, host.invalidated)
	assert.Equal(t, 1, host.scheduleCalls)
}

func TestWrapper_SequenceLengthAlwaysInvalidates(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	seq := record.NewSlice([]any{1, 2, 3})
	w := reg.Observable(seq).(*record.Wrapper)
	_ = w.Get("length")

	w.Set("length", 3) // same numeric value, still must invalidate

	assert.Equal(t, []record.Consumer{consumer}, host.invalidated)
}

func TestWrapper_WatchKeySubscribesToAnyOwnKeyChange(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	w := reg.Observable(record.NewMap(map[string]any{"a": 1, "b": 2})).(*record.Wrapper)
	_ = w.Get(host.opts.WatchKey)

	w.Set("b", 3)

	assert.Equal(t, []record.Consumer{consumer}, host.invalidated)
}

func TestWrapper_DeepWatchFiresOnNestedWrite(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	inner := record.NewMap(map[string]any{"x": 1})
	outer := record.NewMap(map[string]any{"child": inner})
	w := reg.Observable(outer).(*record.Wrapper)
	_ = w.Get(host.opts.WatchDeepKey)

	innerWrapper := reg.Observable(inner).(*record.Wrapper)
	innerWrapper.Set("x", 2)

	assert.Equal(t, []record.Consumer{consumer}, host.invalidated)
}

func TestWrapper_DeepWatchTerminatesOnCycle(t *testing.T) {
	host := newFakeHost()
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	a := record.NewMap(nil)
	b := record.NewMap(nil)
	a.Set("b", b)
	b.Set("a", a) // cycle

	w := reg.Observable(a).(*record.Wrapper)

	done := make(chan struct{})
	go func() {
		_ = w.Get(host.opts.WatchDeepKey)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deep watch over a cyclic graph did not terminate")
	}
}

func TestWrapper_PrototypeRead_FallsThroughToParent(t *testing.T) {
	host := newFakeHost()
	host.opts.Prototypes = true
	reg := record.NewRegistry(host)

	parent := record.NewMap(map[string]any{"greeting": "hi"})
	child := record.NewMap(nil)
	child.SetPrototype(parent)

	w := reg.Observable(child).(*record.Wrapper)
	assert.Equal(t, "hi", w.Get("greeting"))
}

func TestWrapper_PrototypeWrite_ParentFiresUntilShadowed(t *testing.T) {
	host := newFakeHost()
	host.opts.Prototypes = true
	reg := record.NewRegistry(host)
	consumer := &fakeConsumer{}
	host.consumer = consumer

	parent := record.NewMap(map[string]any{"a": 1})
	child := record.NewMap(nil)
	child.SetPrototype(parent)

	childW := reg.Observable(child).(*record.Wrapper)
	parentW := reg.Observable(parent).(*record.Wrapper)

	_ = childW.Get("a") // delegates to parent, registers on parentW

	parentW.Set("a", 2)
	require.Equal(t, []record.Consumer{consumer}, host.invalidated)

	// Re-register as the reaction would on re-execution, then shadow by
	// giving the child its own "a".
	host.invalidated = nil
	consumer.runUninits()
	_ = childW.Get("a")
	child.Set("a", 7) // own key now shadows parent; write lands on childW, not parentW

	parentW.Set("a", 3)
	assert.Empty(t, host.invalidated, "a write to a shadowed parent key must not fire")
}
