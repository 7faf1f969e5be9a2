package record

// Options configures the observation layer and, transitively, the engine
// built on top of it. The public reactive package re-exports this type as
// reactive.Options, so callers see a single Options name.
type Options struct {
	// Enabled gates Run/RunDeferred: when false they are no-ops.
	Enabled bool
	// ImmediateReaction makes writes outside a batch call Run synchronously
	// instead of deferring to the next tick.
	ImmediateReaction bool
	// Prototypes enables prototype-chain-aware read registration.
	Prototypes bool
	// WatchKey is the pseudo-key that subscribes to any own-key change.
	WatchKey string
	// WatchDeepKey is the pseudo-key that subscribes transitively through
	// nested records.
	WatchDeepKey string
	// DataSourceKey returns the underlying source when read.
	DataSourceKey string
}

// DefaultOptions returns the engine's default configuration.
func DefaultOptions() Options {
	return Options{
		Enabled:       true,
		WatchKey:      "$$watch",
		WatchDeepKey:  "$$watchDeep",
		DataSourceKey: "$$dataSource",
	}
}

// Option mutates an Options value. Options are applied with Options.Apply,
// the functional-options idiom used throughout this module's dependency
// stack (genericclioptions, client-go builders) in place of a partial
// struct merge, which can't distinguish "explicitly false" from "unset"
// for the three boolean fields.
type Option func(*Options)

// WithEnabled sets Options.Enabled.
func WithEnabled(v bool) Option { return func(o *Options) { o.Enabled = v } }

// WithImmediateReaction sets Options.ImmediateReaction.
func WithImmediateReaction(v bool) Option { return func(o *Options) { o.ImmediateReaction = v } }

// WithPrototypes sets Options.Prototypes.
func WithPrototypes(v bool) Option { return func(o *Options) { o.Prototypes = v } }

// WithWatchKey overrides the whole-object watch pseudo-key.
func WithWatchKey(key string) Option { return func(o *Options) { o.WatchKey = key } }

// WithWatchDeepKey overrides the deep-watch pseudo-key.
func WithWatchDeepKey(key string) Option { return func(o *Options) { o.WatchDeepKey = key } }

// WithDataSourceKey overrides the data-source pseudo-key.
func WithDataSourceKey(key string) Option { return func(o *Options) { o.DataSourceKey = key } }

// Apply returns a copy of o with every opt applied in order. Calling Apply
// with no options returns o unchanged, the identity case expected of
// calling setOptions with nothing to set.
func (o Options) Apply(opts ...Option) Options {
	merged := o
	for _, opt := range opts {
		opt(&merged)
	}
	return merged
}
