// Package engine implements the derivation engine and reaction scheduler
// on top of internal/record's observation layer: memoized Updatables,
// computed accessors, reactions, and the batched run loop that settles a
// write to a fixed point.
package engine

import (
	"log"
	"reflect"

	"github.com/hashmap-kz/reactivectl/internal/record"
	"github.com/hashmap-kz/reactivectl/internal/weakmap"
)

var _ record.Host = (*Manager)(nil)

// Manager owns one observation Registry, one call stack, and one reaction
// scheduler. Most programs need exactly one; NewManager exists anyway so
// tests don't share state through a package-level default.
type Manager struct {
	reg  *record.Registry
	opts record.Options

	stack []*Updatable

	pending      map[*Updatable]struct{}
	pendingOrder []*Updatable
	inRunSection bool
	scheduled    bool

	updatableCache *weakmap.Map[map[uintptr]*Updatable]
	anonCache      map[uintptr]*Updatable

	afterRun []func()
}

// NewManager creates a Manager with opts applied over the defaults.
func NewManager(opts ...record.Option) *Manager {
	m := &Manager{
		opts:      record.DefaultOptions().Apply(opts...),
		pending:   map[*Updatable]struct{}{},
		anonCache: map[uintptr]*Updatable{},
	}
	m.reg = record.NewRegistry(m)
	m.updatableCache = weakmap.New[map[uintptr]*Updatable]()
	return m
}

// Options implements record.Host.
func (m *Manager) Options() record.Options { return m.opts }

// SetOptions applies opts over the current configuration. Options.Apply's
// functional-option semantics make SetOptions() a no-op, matching the
// identity case of calling setOptions with nothing to set.
func (m *Manager) SetOptions(opts ...record.Option) {
	m.opts = m.opts.Apply(opts...)
}

// CurrentConsumer implements record.Host: the Updatable at the top of the
// call stack, if any derivation is currently executing.
func (m *Manager) CurrentConsumer() (record.Consumer, bool) {
	if len(m.stack) == 0 {
		return nil, false
	}
	return m.stack[len(m.stack)-1], true
}

// Invalidate implements record.Host.
func (m *Manager) Invalidate(c record.Consumer) {
	if u, ok := c.(*Updatable); ok {
		u.invalidate()
	}
}

// ScheduleReactionPass implements record.Host: run immediately, defer to
// the next tick, or do nothing, according to Options and whether a batch
// is already in progress.
func (m *Manager) ScheduleReactionPass() {
	if m.inRunSection || !m.opts.Enabled {
		return
	}
	if m.opts.ImmediateReaction {
		m.inRunSection = true
		defer func() { m.inRunSection = false }()
		err := m.drainPending()
		m.scheduled = false
		if err != nil {
			log.Printf("engine: reaction pass: %v", err)
		}
		m.runAfterHooks()
		return
	}
	_ = m.RunDeferred(nil)
}

func (m *Manager) pushConsumer(u *Updatable) { m.stack = append(m.stack, u) }

func (m *Manager) popConsumer() { m.stack = m.stack[:len(m.stack)-1] }

// Observable returns the transparent wrapper for src.
func (m *Manager) Observable(src any) any { return m.reg.Observable(src) }

// IsObservable reports whether x is a wrapper (a *record.Wrapper), whichever
// Manager produced it.
func (m *Manager) IsObservable(x any) bool { return m.reg.IsObservable(x) }

// Updatable returns the memoized derivation for fn bound to opts.Obj,
// creating it on first use. Calling Updatable again with the same Obj and
// the same fn value returns the identical *Updatable: Go func values
// aren't comparable, so interning keys on the function pointer
// (reflect.Value.Pointer) rather than fn equality, which is the closest
// runtime analogue available.
func (m *Manager) Updatable(fn UpdatableFunc, opts UpdatableOptions) *Updatable {
	fp := reflect.ValueOf(fn).Pointer()

	if opts.Obj == nil {
		if u, ok := m.anonCache[fp]; ok {
			return u
		}
		u := newUpdatable(m, fn, opts)
		m.anonCache[fp] = u
		return u
	}

	// The bucket is keyed on Obj's wrapper (Obj itself when it isn't
	// record-shaped): the Registry's cache already holds the finalizer on a
	// record source, and runtime.SetFinalizer allows only one per object.
	bucket := m.updatableCache.LoadOrStore(m.reg.Observable(opts.Obj), func() map[uintptr]*Updatable {
		return map[uintptr]*Updatable{}
	})
	if u, ok := bucket[fp]; ok {
		return u
	}
	u := newUpdatable(m, fn, opts)
	bucket[fp] = u
	return u
}

// Computed installs a memoized accessor at key on obj: reading key calls
// get (through the same Updatable machinery as Updatable, so it is lazy
// and cached), writing key calls set. get's ctx argument is obj's
// *record.Wrapper, not the raw source — get must read through it (e.g.
// ctx.(*record.Wrapper).Get("a")) for its reads to register as
// dependencies; reading the raw source directly tracks nothing. A caller
// that merely reads the accessor itself still becomes a dependent of the
// Updatable behind it (Updatable.Call's deps registration, not a record
// subscription), so a reaction reading only the computed key still
// re-fires when get's backing fields change.
func (m *Manager) Computed(obj record.Source, key record.Key, get UpdatableFunc, set func(any)) {
	w, ok := m.reg.Observable(obj).(*record.Wrapper)
	if !ok {
		return
	}
	u := m.Updatable(get, UpdatableOptions{Obj: obj})
	w.SetAccessor(key, func() any { return u.Call() }, set)
}

// Reaction creates a standalone Updatable that re-runs fn whenever any key
// it last read changes, and schedules itself instead of requiring a
// reader to call Call. Unlike Updatable, each call to Reaction creates a
// new instance; reactions aren't interned. The new reaction joins the
// pending set immediately; when run is true a reaction pass is started
// too - synchronously under ImmediateReaction, otherwise left for the
// next Drain.
func (m *Manager) Reaction(fn UpdatableFunc, run bool) *Updatable {
	u := newUpdatable(m, fn, UpdatableOptions{})
	u.opts.OnInvalidate = func() { m.enqueue(u) }
	m.enqueue(u)
	if run {
		if m.opts.ImmediateReaction {
			if err := m.Run(nil); err != nil {
				log.Printf("engine: reaction pass: %v", err)
			}
		} else {
			_ = m.RunDeferred(nil)
		}
	}
	return u
}

// enqueue adds u to the pending-reaction set, preserving first-insertion
// order: a pass drains reactions in the order they were enqueued.
func (m *Manager) enqueue(u *Updatable) {
	if _, ok := m.pending[u]; ok {
		return
	}
	m.pending[u] = struct{}{}
	m.pendingOrder = append(m.pendingOrder, u)
}

// Run executes batch (if non-nil) with writes treated as one unit, then
// synchronously drains every pending reaction to a fixed point. Returns
// ErrIterationLimit if a reaction keeps re-invalidating after
// maxIterations full passes.
func (m *Manager) Run(batch func()) error {
	if !m.opts.Enabled {
		return nil
	}

	wasInSection := m.inRunSection
	m.inRunSection = true
	defer func() { m.inRunSection = wasInSection }()
	if batch != nil {
		batch()
	}
	err := m.drainPending()
	m.scheduled = false

	if !wasInSection {
		m.runAfterHooks()
	}
	return err
}

// RunDeferred executes batch (if non-nil) immediately but leaves the
// reaction pass itself pending. No timer is started: Go has no implicit
// equivalent of a JS microtask queue to hang that on without risking a
// reaction pass racing a caller's own goroutine. Instead RunDeferred just
// marks a pass scheduled; the pending reactions run on the host's next Run
// call or when it calls Drain from its own tick boundary, the usual
// accommodation for languages without an event loop. A later RunDeferred
// call does not drain them. RunDeferred itself always returns nil.
func (m *Manager) RunDeferred(batch func()) error {
	if !m.opts.Enabled {
		return nil
	}
	if batch != nil {
		wasInSection := m.inRunSection
		m.inRunSection = true
		defer func() { m.inRunSection = wasInSection }()
		batch()
	}
	m.scheduled = true
	return nil
}

// Drain forces any reaction pass scheduled by RunDeferred to run right
// now, synchronously. Hosts with no event loop of their own should call
// this from wherever they consider a "tick" to end.
func (m *Manager) Drain() error {
	if !m.scheduled {
		return nil
	}
	m.scheduled = false
	m.inRunSection = true
	defer func() { m.inRunSection = false }()
	err := m.drainPending()
	if err != nil {
		log.Printf("engine: deferred reaction pass: %v", err)
	}
	m.runAfterHooks()
	return err
}

// drainPending repeatedly calls every pending reaction until none remain
// invalidated, up to maxIterations passes. Each pass snapshots the set and
// drains it in insertion order; reactions re-enqueued mid-pass extend the
// same drain via the next iteration rather than waiting for another tick.
// Exceeding the bound aborts the loop and clears the scheduler state, so
// the stuck reactions don't leak into the next pass.
func (m *Manager) drainPending() error {
	for i := 0; i < maxIterations; i++ {
		if len(m.pendingOrder) == 0 {
			return nil
		}
		batch := m.pendingOrder
		m.pendingOrder = nil
		m.pending = map[*Updatable]struct{}{}
		for _, u := range batch {
			u.Call()
		}
	}
	if len(m.pendingOrder) == 0 {
		return nil
	}
	m.pending = map[*Updatable]struct{}{}
	m.pendingOrder = nil
	return ErrIterationLimit
}

// OnAfterRun registers fn to run after every completed reaction pass,
// whether triggered by Run or Drain.
func (m *Manager) OnAfterRun(fn func()) {
	m.afterRun = append(m.afterRun, fn)
}

func (m *Manager) runAfterHooks() {
	for _, fn := range m.afterRun {
		fn()
	}
}
