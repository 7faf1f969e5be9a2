// Package reactive is the public surface of the reactive data manager:
// transparent observation of records/sequences, memoized derivations
// (Updatables), reactions that re-run on invalidation, and the scheduler
// that settles a batch of writes to a fixed point.
//
// Most programs want exactly one Manager; NewManager exists for tests and
// for callers who need more than one independent engine. The package-level
// functions here are thin wrappers around a package-wide default Manager
// (see Default), a convenience only: tests should create their own
// Manager with NewManager rather than rely on it.
package reactive

import (
	"github.com/hashmap-kz/reactivectl/internal/engine"
	"github.com/hashmap-kz/reactivectl/internal/record"
)

// Re-exported types so callers never need to import internal packages.
type (
	// Manager owns one observation registry, one call stack, and one
	// reaction scheduler.
	Manager = engine.Manager
	// Updatable is a memoized derivation or a reaction.
	Updatable = engine.Updatable
	// UpdatableFunc is the body of a derivation or reaction.
	UpdatableFunc = engine.UpdatableFunc
	// UpdatableOptions configures a single Updatable.
	UpdatableOptions = engine.UpdatableOptions
	// Wrapper is the transparent observation surface Computed/Updatable
	// bodies receive as ctx: call Get/Set/Delete on it, not the raw source,
	// so reads register as dependencies.
	Wrapper = record.Wrapper
	// Source is anything the engine can observe: a keyed record or an
	// ordered sequence.
	Source = record.Source
	// Sequence is a Source that also behaves like an ordered list.
	Sequence = record.Sequence
	// PrototypeSource is implemented by sources participating in
	// prototype-chain inheritance.
	PrototypeSource = record.PrototypeSource
	// Key identifies a single field on an observed Source.
	Key = record.Key
	// Options configures a Manager.
	Options = record.Options
	// Option mutates an Options value.
	Option = record.Option
)

// ErrIterationLimit is returned by Run/Drain when a reaction pass
// fails to reach a fixed point within the engine's iteration bound.
var ErrIterationLimit = engine.ErrIterationLimit

// Functional options, re-exported for convenience.
var (
	WithEnabled           = record.WithEnabled
	WithImmediateReaction = record.WithImmediateReaction
	WithPrototypes        = record.WithPrototypes
	WithWatchKey          = record.WithWatchKey
	WithWatchDeepKey      = record.WithWatchDeepKey
	WithDataSourceKey     = record.WithDataSourceKey
)

// NewManager creates an independent Manager configured by opts.
func NewManager(opts ...Option) *Manager {
	return engine.NewManager(opts...)
}

// defaultManager backs the package-level convenience functions below. It is
// a convenience only: tests, and any caller that needs isolation from
// other packages' reactions, should call NewManager instead.
var defaultManager = NewManager()

// Default returns the package-wide convenience Manager the top-level
// functions in this file delegate to.
func Default() *Manager { return defaultManager }

// Observable returns the transparent wrapper for src, using the default
// Manager.
func Observable(src any) any { return defaultManager.Observable(src) }

// IsObservable reports whether x is a wrapper, using the default Manager;
// a wrapper produced by any Manager counts.
func IsObservable(x any) bool { return defaultManager.IsObservable(x) }

// Computed installs a memoized accessor at key on obj, using the default
// Manager.
func Computed(obj Source, key Key, get UpdatableFunc, set func(any)) {
	defaultManager.Computed(obj, key, get, set)
}

// UpdatableOf returns the memoized derivation for fn, using the default
// Manager. Named UpdatableOf rather than Updatable to avoid colliding with
// the re-exported Updatable type.
func UpdatableOf(fn UpdatableFunc, opts UpdatableOptions) *Updatable {
	return defaultManager.Updatable(fn, opts)
}

// Reaction registers an auto-rerunning Updatable on the default Manager.
func Reaction(fn UpdatableFunc, run bool) *Updatable {
	return defaultManager.Reaction(fn, run)
}

// Run drains the default Manager's pending reactions to a fixed point.
func Run(batch func()) error { return defaultManager.Run(batch) }

// RunDeferred schedules a reaction pass on the default Manager for the next
// Drain.
func RunDeferred(batch func()) error { return defaultManager.RunDeferred(batch) }

// Drain forces any reaction pass scheduled by RunDeferred to run now, on the
// default Manager.
func Drain() error { return defaultManager.Drain() }

// SetOptions merges opts over the default Manager's configuration.
func SetOptions(opts ...Option) { defaultManager.SetOptions(opts...) }

// OnAfterRun registers fn to run after every completed reaction pass on the
// default Manager.
func OnAfterRun(fn func()) { defaultManager.OnAfterRun(fn) }

// NewMap adapts a plain Go map into an observable Source.
func NewMap(data map[string]any) *record.MapAdapter {
	return record.NewMap(data)
}

// NewSlice adapts a plain Go slice into an observable Sequence.
func NewSlice(data []any) *record.SliceAdapter {
	return record.NewSlice(data)
}
