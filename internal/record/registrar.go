package record

// Consumer is anything that can be registered as a dependent of a key
// read through a Wrapper. The only real implementation is
// *engine.Updatable; record never imports engine, it only needs the
// ability to attach a teardown closure that the engine calls the next
// time the consumer re-executes (an "uninit" entry).
type Consumer interface {
	// AddUninit registers fn to run (and then be discarded) the next time
	// this consumer re-executes, before it runs again.
	AddUninit(fn func())
}

// Host is the callback surface a Wrapper needs back into the owning
// engine: what the current options are, who is reading right now, how to
// invalidate a consumer, and how to schedule a reaction pass after a
// write. engine.Manager implements Host.
type Host interface {
	Options() Options
	// CurrentConsumer returns the Updatable at the top of the call stack,
	// if any derivation is currently executing.
	CurrentConsumer() (Consumer, bool)
	// Invalidate marks c stale and, via c's own deps set, recursively
	// invalidates every Updatable that read c's result on its last run.
	Invalidate(c Consumer)
	// ScheduleReactionPass runs or defers a reaction pass per Options and
	// the current batch state, unless a batch is already in progress.
	ScheduleReactionPass()
}
