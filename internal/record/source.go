// Package record implements the observation layer: transparent wrapping of
// user-owned records and sequences, pseudo-key interception, and
// prototype-chain aware dependency registration.
//
// It knows nothing about Updatables, the call stack, or the scheduler —
// those live in internal/engine, which imports record. record only needs
// a narrow callback surface back into the engine (Host, below), so the
// dependency runs one way.
package record

// Key identifies a single field on an observed Source: a string field
// name on a record, or an int index into a sequence. Any comparable value
// is accepted so callers can key by whatever their source naturally uses.
type Key = any

// Source is anything the engine can observe: a keyed record or an ordered
// sequence. Only values satisfying Source are ever wrapped — every other
// value (numbers, strings, funcs, nil) passes through Observable
// unchanged, per the engine's "only records/sequences are observed" rule.
//
// Implementations must be reference types (pointers, in practice) so that
// two reads of "the same" source yield values that compare equal by
// identity — this is what lets the engine cache one Wrapper per source.
type Source interface {
	// Get returns the current value at key and whether key is present.
	Get(key Key) (value any, ok bool)
	// Set stores value at key, creating it if absent.
	Set(key Key, value any)
	// Delete removes key, if present.
	Delete(key Key)
	// Keys returns the source's own keys, in an implementation-defined order
	// (map-backed sources return them in map iteration order). Used by
	// deep-watch traversal and by callers that delete every key.
	Keys() []Key
}

// Sequence is a Source that also behaves like an ordered list: Len/SetLen
// give the pseudo "length" key its special write semantics (a length
// change is never a no-op, even when the new value looks unchanged from a
// Source.Get/Set perspective).
type Sequence interface {
	Source
	Len() int
	SetLen(n int)
}

// PrototypeSource is implemented by sources that participate in
// prototype-chain inheritance. When Options.Prototypes is enabled, a read
// that misses on Get walks Prototype() upward.
type PrototypeSource interface {
	Prototype() (parent any, ok bool)
}

// isRecordShaped reports whether v is something the engine can wrap: a
// non-nil Source. nil, primitives, structs without Source methods, and plain
// callables are not record-shaped and are returned unchanged by
// Observable.
func isRecordShaped(v any) (Source, bool) {
	if v == nil {
		return nil, false
	}
	s, ok := v.(Source)
	return s, ok
}
