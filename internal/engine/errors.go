package engine

import "errors"

// ErrIterationLimit is returned by Manager.Run and Manager.Drain when a
// reaction pass fails to reach a fixed point within maxIterations
// batches: some reaction keeps invalidating itself (or another reaction)
// every time it runs.
var ErrIterationLimit = errors.New("engine: reaction pass did not settle within the iteration limit")

// crossReferenceWarning is printed when an Updatable reads its own value
// while it is still computing, directly or through another Updatable.
const crossReferenceWarning = `Detected cross reference inside computed properties! "undefined" will be returned to prevent infinite loop`

// maxIterations bounds the fixed-point loop Run uses to settle a batch of
// writes: at most this many full reaction passes before giving up.
const maxIterations = 10
