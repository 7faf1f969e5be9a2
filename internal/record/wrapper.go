package record

import "reflect"

// Wrapper is the transparent observation surface for one Source. Two
// calls to Registry.Observable on the same source return the identical
// *Wrapper (pointer equality), matching the engine's stable-identity
// invariant.
//
// Go has no proxy primitive, so Wrapper exposes an explicit accessor API
// as the universal baseline: Get/Set/Delete instead of transparent
// property interception.
type Wrapper struct {
	reg  *Registry
	src  Source
	subs map[Key]map[Consumer]subscriptionMeta
	acc  map[Key]accessor
}

type accessor struct {
	get func() any
	set func(any)
}

// subscriptionMeta records how a Consumer came to depend on one key of
// one Wrapper's subscription table.
type subscriptionMeta struct {
	// root is true for a direct (non-prototype) registration: the
	// consumer read this key straight off this Wrapper's own source.
	root bool
	// vector is the prototype chain walked to find this entry's owner,
	// ordered from the original reader (index 0) to the owner (last
	// index, which is always this Wrapper). Only meaningful when !root.
	vector []*Wrapper
}

var lengthKey Key = "length"

// Source returns the underlying source, unwrapped.
func (w *Wrapper) Source() Source { return w.src }

// SetAccessor installs a memoized getter (and optional setter) for key.
// Reads of key thereafter call get(); writes call set (when non-nil) and
// do not themselves invalidate anything — engine.Manager.Computed wires
// get to a Manager-memoized Updatable before calling this.
func (w *Wrapper) SetAccessor(key Key, get func() any, set func(any)) {
	if w.acc == nil {
		w.acc = map[Key]accessor{}
	}
	w.acc[key] = accessor{get: get, set: set}
}

// Get reads key, intercepting pseudo-keys and computed accessors and
// registering a dependency for whichever Updatable is currently
// executing, per spec section 4.1.
func (w *Wrapper) Get(key Key) any {
	opts := w.reg.host.Options()

	if key == opts.DataSourceKey {
		return w.src
	}

	if a, ok := w.acc[key]; ok {
		return a.get()
	}

	consumer, hasConsumer := w.reg.host.CurrentConsumer()

	switch key {
	case opts.WatchKey:
		if hasConsumer {
			w.registerRead(consumer, key)
		}
		return w
	case opts.WatchDeepKey:
		if hasConsumer {
			w.touchDeepWatch(consumer, map[Source]bool{})
		}
		return w
	}

	if hasConsumer {
		w.registerRead(consumer, key)
	}

	if key == lengthKey {
		if seq, ok := w.src.(Sequence); ok {
			return seq.Len()
		}
	}

	v, ok := w.src.Get(key)
	if !ok {
		if opts.Prototypes {
			if pv, found := w.prototypeValue(key); found {
				return w.reg.Observable(pv)
			}
		}
		return nil
	}
	return w.reg.Observable(v)
}

// prototypeValue resolves key against the prototype chain when the source
// itself doesn't own it, returning the nearest ancestor's value.
func (w *Wrapper) prototypeValue(key Key) (any, bool) {
	cur := w.src
	for {
		ps, ok := cur.(PrototypeSource)
		if !ok {
			return nil, false
		}
		parent, ok := ps.Prototype()
		if !ok || parent == nil {
			return nil, false
		}
		src, ok := isRecordShaped(parent)
		if !ok {
			return nil, false
		}
		if v, ok := src.Get(key); ok {
			return v, true
		}
		cur = src
	}
}

// Set writes key, applying the installed setter if key has a computed
// accessor, otherwise writing through to the source. A write whose value
// is referentially equal to the current one is a no-op (except setting
// "length" on a Sequence, which always takes effect).
func (w *Wrapper) Set(key Key, value any) {
	if a, ok := w.acc[key]; ok {
		if a.set != nil {
			a.set(value)
		}
		return
	}

	if key == lengthKey {
		if seq, ok := w.src.(Sequence); ok {
			seq.SetLen(toInt(value))
			w.updateProperty(key)
			return
		}
	}

	old, existed := w.src.Get(key)
	if existed && valuesEqual(old, value) {
		return
	}
	w.src.Set(key, value)
	w.updateProperty(key)
}

// Delete removes key from the source and invalidates its dependents.
func (w *Wrapper) Delete(key Key) {
	w.src.Delete(key)
	w.updateProperty(key)
}

// Len reports the length of a Sequence-backed wrapper.
func (w *Wrapper) Len() (int, bool) {
	seq, ok := w.src.(Sequence)
	if !ok {
		return 0, false
	}
	return seq.Len(), true
}

func (w *Wrapper) registerRead(c Consumer, key Key) {
	opts := w.reg.host.Options()

	if opts.Prototypes && key != opts.WatchKey && key != opts.WatchDeepKey && key != opts.DataSourceKey {
		if _, ok := w.src.Get(key); !ok {
			if vector, owner := w.walkPrototype(key); owner != nil {
				owner.addSubscription(key, c, subscriptionMeta{vector: vector})
				c.AddUninit(func() { owner.removeSubscription(key, c) })
				return
			}
		}
	}

	w.addSubscription(key, c, subscriptionMeta{root: true})
	c.AddUninit(func() { w.removeSubscription(key, c) })
}

// walkPrototype walks the prototype chain starting at w looking for the
// nearest ancestor (inclusive of w's direct parent) that owns key. If no
// ancestor owns key, the topmost wrapped ancestor is returned as owner so
// a write anywhere on the chain's top still has somewhere to register.
// Returns a nil owner if w has no prototype at all.
func (w *Wrapper) walkPrototype(key Key) ([]*Wrapper, *Wrapper) {
	vector := []*Wrapper{w}
	cur := w
	for {
		ps, ok := cur.src.(PrototypeSource)
		if !ok {
			break
		}
		parentSrc, ok := ps.Prototype()
		if !ok || parentSrc == nil {
			break
		}
		parentSource, ok := isRecordShaped(parentSrc)
		if !ok {
			break
		}
		parent := cur.reg.wrap(parentSource)
		vector = append(vector, parent)
		if _, ok := parent.src.Get(key); ok {
			return vector, parent
		}
		cur = parent
	}
	if len(vector) > 1 {
		return vector, vector[len(vector)-1]
	}
	return vector, nil
}

// unshadowed reports whether no wrapper from the original reader (index 0)
// up to, but not including, this owner (the last element of vector, which
// is w) now owns key as its own. A "yes" means the registration is still the effective
// provider for key and should be invalidated; a "no" means a closer
// override shadows it and this write must not fire the consumer.
func (w *Wrapper) unshadowed(vector []*Wrapper, key Key) bool {
	for i := 0; i < len(vector)-1; i++ {
		if _, ok := vector[i].src.Get(key); ok {
			return false
		}
	}
	return true
}

// updateProperty invalidates every Updatable subscribed to key (or to the
// whole-object watch key) on this Wrapper, then asks the host to run or
// schedule a reaction pass, per spec section 4.1 write interception.
func (w *Wrapper) updateProperty(key Key) {
	opts := w.reg.host.Options()

	keysToCheck := []Key{key}
	if key != opts.WatchKey {
		keysToCheck = append(keysToCheck, opts.WatchKey)
	}

	invalidated := map[Consumer]bool{}
	for _, k := range keysToCheck {
		set, ok := w.subs[k]
		if !ok {
			continue
		}
		for c, meta := range set {
			if invalidated[c] {
				continue
			}
			if meta.root {
				w.reg.host.Invalidate(c)
				invalidated[c] = true
				continue
			}
			if w.unshadowed(meta.vector, key) {
				w.reg.host.Invalidate(c)
				invalidated[c] = true
			}
		}
	}

	w.reg.host.ScheduleReactionPass()
}

func (w *Wrapper) addSubscription(key Key, c Consumer, meta subscriptionMeta) {
	if w.subs == nil {
		w.subs = map[Key]map[Consumer]subscriptionMeta{}
	}
	set, ok := w.subs[key]
	if !ok {
		set = map[Consumer]subscriptionMeta{}
		w.subs[key] = set
	}
	set[c] = meta
}

func (w *Wrapper) removeSubscription(key Key, c Consumer) {
	set, ok := w.subs[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(w.subs, key)
	}
}

// touchDeepWatch registers c against this Wrapper's whole-object watch
// key, then recurses into every nested record/sequence value reachable
// from the source. visited suppresses re-entrance into a record already
// walked in this call, so a cycle (a record referencing an ancestor of
// itself) terminates instead of recursing forever.
func (w *Wrapper) touchDeepWatch(c Consumer, visited map[Source]bool) {
	if visited[w.src] {
		return
	}
	visited[w.src] = true

	w.registerRead(c, w.reg.host.Options().WatchKey)

	for _, k := range w.src.Keys() {
		v, ok := w.src.Get(k)
		if !ok {
			continue
		}
		if s, ok := isRecordShaped(v); ok {
			w.reg.wrap(s).touchDeepWatch(c, visited)
		}
	}
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() || !av.Comparable() {
		return false
	}
	return a == b
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
