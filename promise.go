package futures

import (
	"runtime"
	"sync/atomic"
)

// Promise is the producer side of a shared state: it exclusively owns
// the write end, hands out at most one [Future] via GetFuture, and — if
// that future was retrieved but no value/error was ever set — settles it
// to [ErrBrokenPromise].
//
// Go has no deterministic destructors, so "destroyed before set" is
// realized two ways: explicitly via Abandon (the call every producer
// should defer immediately after construction), and defensively via a
// runtime.AddCleanup safety net so a Promise dropped without Abandon
// still unblocks its future's waiters instead of hanging forever. The
// latter is best-effort — its timing depends on the garbage collector —
// and exists only to bound the damage of a bug, not as the primary
// mechanism.
type Promise[T any] struct {
	state     *sharedState[T]
	stop      StopSource
	retrieved atomic.Bool
}

// NewPromise creates a Promise for a non-stoppable future.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{state: newSharedState[T]()}
	p.enableCleanup()
	return p
}

// NewStoppablePromise creates a Promise whose future will carry a fresh
// [StopSource], so its consumers can cooperatively cancel it.
func NewStoppablePromise[T any]() *Promise[T] {
	p := &Promise[T]{state: newSharedState[T](), stop: NewStopSource()}
	p.enableCleanup()
	return p
}

func (p *Promise[T]) enableCleanup() {
	state := p.state
	runtime.AddCleanup(p, func(state *sharedState[T]) {
		if !state.IsReady() {
			logGCCleanupFired("promise")
			state.signalOwnerDestroyed()
		}
	}, state)
}

// GetFuture returns the single [Future] reading this promise's state.
// Subsequent calls return [ErrFutureAlreadyRetrieved].
func (p *Promise[T]) GetFuture() (Future[T], error) {
	if !p.retrieved.CompareAndSwap(false, true) {
		return Future[T]{}, ErrFutureAlreadyRetrieved
	}
	return newFuture(p.state, p.stop), nil
}

// SetValue settles the promise with v. Returns
// [ErrPromiseAlreadySatisfied] if already settled.
func (p *Promise[T]) SetValue(v T) error {
	return p.state.setValue(v)
}

// SetError settles the promise with err. Returns
// [ErrPromiseAlreadySatisfied] if already settled.
func (p *Promise[T]) SetError(err error) error {
	return p.state.setError(err)
}

// Abandon signals broken-promise if the state has not yet settled. Every
// producer should `defer p.Abandon()` immediately after creating a
// Promise, so a return-before-SetValue path (including a panic) still
// unblocks waiters promptly, rather than relying on the GC safety net.
func (p *Promise[T]) Abandon() {
	p.state.signalOwnerDestroyed()
}

// PackagedTask wraps a callable together with a shared state holding its
// eventual result. Running the task captures its return value (or a
// recovered panic, wrapped as [PanicError]) into the state and settles
// it.
type PackagedTask[T any] struct {
	fn        func() (T, error)
	state     *sharedState[T]
	retrieved atomic.Bool
}

// NewPackagedTask wraps fn. Bind arguments via closure, since Go has no
// variadic generic parameter packs.
func NewPackagedTask[T any](fn func() (T, error)) *PackagedTask[T] {
	return &PackagedTask[T]{fn: fn, state: newSharedState[T]()}
}

// GetFuture returns the single Future reading this task's result.
func (t *PackagedTask[T]) GetFuture() (Future[T], error) {
	if !t.retrieved.CompareAndSwap(false, true) {
		return Future[T]{}, ErrFutureAlreadyRetrieved
	}
	return newFuture(t.state, StopSource{}), nil
}

// Run invokes the wrapped callable, capturing its result (or a recovered
// panic) into the task's state. Run itself never panics.
func (t *PackagedTask[T]) Run() {
	defer func() {
		if r := recover(); r != nil {
			_ = t.state.setError(PanicError{Value: r})
		}
	}()
	v, err := t.fn()
	if err != nil {
		_ = t.state.setError(err)
		return
	}
	_ = t.state.setValue(v)
}

// Reset reallocates the task's internal state, invalidating whatever
// future was previously retrieved (it will observe its old state
// forever, unaffected by future Run calls on the reset task).
func (t *PackagedTask[T]) Reset() {
	t.state = newSharedState[T]()
	t.retrieved.Store(false)
}
