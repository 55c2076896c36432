package futures

import "sync"

// continuationList is a single-shot, run-once list of type-erased
// callbacks. It is the core correctness primitive underpinning lazy
// continuations: once requestRun has fired, any further append must not
// be silently queued (that would be a lost wakeup) — it is instead
// dispatched immediately.
//
// The append/requestRun pair is an optimistic-then-locked double-check:
// a callback registered before settlement queues normally, one
// registered after settlement is handed back to the caller to run
// itself, so no attach can race a settlement that already happened.
type continuationList struct {
	mu          sync.Mutex
	callbacks   []func()
	runRequested bool
}

// append adds cb to the list if requestRun has not yet fired. If it has,
// cb is not queued here — the caller must post it directly to an
// executor, and append reports that via the dispatched return.
func (c *continuationList) append(cb func()) (dispatched bool) {
	c.mu.Lock()
	if c.runRequested {
		c.mu.Unlock()
		return true
	}
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
	return false
}

// requestRun flips runRequested from false to true exactly once and, on
// the call that performs the transition, invokes every queued callback
// and clears the list. Subsequent calls are no-ops.
//
// Returns true iff this call performed the transition (i.e. ran the
// callbacks).
func (c *continuationList) requestRun() bool {
	c.mu.Lock()
	if c.runRequested {
		c.mu.Unlock()
		return false
	}
	c.runRequested = true
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
	return true
}

// hasRun reports whether requestRun has already fired, without blocking
// on the callbacks themselves.
func (c *continuationList) hasRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runRequested
}
