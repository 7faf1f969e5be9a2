package engine

import "log"

// UpdatableFunc is the body of a memoized derivation or a reaction. ctx is
// the observable wrapper of UpdatableOptions.Obj (Obj itself when it isn't
// record-shaped, the Manager when Obj is nil); most callers close over
// their own state and ignore it.
type UpdatableFunc func(ctx any) any

// UpdatableOptions configures a single Updatable.
type UpdatableOptions struct {
	// Obj is the host this derivation is scoped to. fn receives Obj's
	// observable wrapper as ctx when Obj is a record/sequence, so reads
	// through ctx register as dependencies; a nil Obj means fn receives
	// the Manager itself. Left nil by most callers, which close over
	// their own state instead.
	Obj any
	// OnInvalidate, when set, runs synchronously the instant this
	// Updatable is marked stale, before any scheduled reaction pass. This
	// is how Manager.Reaction is built on top of the same primitive as
	// Manager.Updatable: a reaction is an Updatable whose OnInvalidate
	// re-queues it for the next run.
	OnInvalidate func()
}

// Updatable is a memoized computation: valid until one of the keys it read
// on its last run is written, at which point the next Call recomputes it.
// Tracks valid, value, computing, invalidatedDuringRun, deps (the
// downstream Updatables that read this one, so invalidation can propagate
// through an Updatable-to-Updatable chain and not just through record
// keys), plus the uninit closures inherited from being a record.Consumer.
type Updatable struct {
	mgr  *Manager
	fn   UpdatableFunc
	opts UpdatableOptions

	valid                bool
	value                any
	computing            bool
	invalidatedDuringRun bool
	deps                 map[*Updatable]struct{}
	uninit               []func()
}

func newUpdatable(mgr *Manager, fn UpdatableFunc, opts UpdatableOptions) *Updatable {
	return &Updatable{mgr: mgr, fn: fn, opts: opts}
}

// AddUninit implements record.Consumer: it queues fn to run the next time
// this Updatable is about to recompute, tearing down the subscription that
// called AddUninit.
func (u *Updatable) AddUninit(fn func()) {
	u.uninit = append(u.uninit, fn)
}

func (u *Updatable) runUninits() {
	fns := u.uninit
	u.uninit = nil
	for _, fn := range fns {
		fn()
	}
}

// addDep records consumer as a downstream dependent of u: when u is next
// invalidated, consumer is invalidated transitively (invalidate, below).
func (u *Updatable) addDep(consumer *Updatable) {
	if u.deps == nil {
		u.deps = map[*Updatable]struct{}{}
	}
	u.deps[consumer] = struct{}{}
}

// invalidate marks u stale. If u is itself mid-computation (a
// self-referential write), the invalidation is deferred by flagging
// invalidatedDuringRun instead of recursing into OnInvalidate, so Call can
// decide after the fact whether the result it just produced is usable.
// Otherwise, once u transitions from valid to invalid, every Updatable
// that read u on its last run (u.deps) is invalidated in turn, and deps is
// cleared - each dependent re-registers on its next Call.
func (u *Updatable) invalidate() {
	if u.computing {
		u.invalidatedDuringRun = true
		return
	}
	if !u.valid {
		return
	}
	u.valid = false
	if u.opts.OnInvalidate != nil {
		u.opts.OnInvalidate()
	}
	deps := u.deps
	u.deps = nil
	for dep := range deps {
		dep.invalidate()
	}
}

// Call returns the memoized value, recomputing fn if stale:
//  1. If computing is already true, this is a cross-reference: log the
//     diagnostic and return nil instead of recursing or deadlocking.
//  2. If the call stack is non-empty, register the current top of stack
//     as a consumer of u (u.deps), regardless of whether u is valid - this
//     is what lets an Updatable (a reaction, a computed getter) depend on
//     another Updatable's result directly, not only on the record keys
//     that Updatable itself read.
//  3. If valid, return value without calling fn (laziness/memoization).
//  4. Run any uninit closures left over from the previous computation,
//     tearing down stale subscriptions.
//  5. Push u as the current consumer, call fn, pop. The pop and the
//     computing reset are deferred, so a panicking fn leaves the stack
//     consistent while the panic propagates to the caller of Run.
//  6. Commit: valid becomes true unless a write during the call
//     invalidated u again (invalidatedDuringRun), in which case u stays
//     stale and the next Call recomputes once more.
func (u *Updatable) Call() any {
	if u.computing {
		log.Print(crossReferenceWarning)
		return nil
	}

	if top, ok := u.mgr.CurrentConsumer(); ok {
		if consumer, ok := top.(*Updatable); ok && consumer != u {
			u.addDep(consumer)
		}
	}

	if u.valid {
		return u.value
	}

	u.runUninits()

	u.computing = true
	u.invalidatedDuringRun = false

	u.mgr.pushConsumer(u)
	defer func() {
		u.mgr.popConsumer()
		u.computing = false
	}()

	result := u.fn(u.contextArg())
	u.value = result

	if u.invalidatedDuringRun {
		// A write during this very call invalidated u: commit the result
		// but leave u stale, and fire the hook invalidate() suppressed
		// while computing was true so a self-looping reaction still gets
		// rescheduled.
		u.invalidatedDuringRun = false
		u.valid = false
		if u.opts.OnInvalidate != nil {
			u.opts.OnInvalidate()
		}
	} else {
		u.valid = true
	}

	return u.value
}

// contextArg resolves what fn receives as ctx: the observable wrapper of
// Obj when one exists (Observable is a no-op for non-record values and for
// values already wrapped), else the Manager itself.
func (u *Updatable) contextArg() any {
	if u.opts.Obj == nil {
		return u.mgr
	}
	return u.mgr.Observable(u.opts.Obj)
}

// Dispose immediately evicts u from every key/prototype subscription list
// it joined on its last Call, instead of waiting for u to either
// recompute or have its host reclaimed. Callers that know an Updatable
// (typically one returned by Manager.Reaction) is permanently abandoned
// should call this to stop it leaking subscriptions, rather than letting
// them linger until the host they were registered on is garbage
// collected.
func (u *Updatable) Dispose() {
	u.runUninits()
	u.valid = false
	u.deps = nil
}
