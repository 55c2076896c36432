package futures

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// futureState holds the mutable fields of a futureHandle behind a second
// allocation, so the handle's GC cleanup can reference this without
// referencing the handle itself — see [Future.enableCleanup].
type futureState[T any] struct {
	st       *sharedState[T]
	stop     StopSource // zero value (Valid()==false) means not stoppable
	consumed atomic.Bool
	detached atomic.Bool
	closed   atomic.Bool
}

// futureHandle is the internal handle shared by a Future[T] and (after
// Share) the SharedFuture[T] derived from it. Splitting it out of Future
// itself lets copies of a Future alias one handle, which is how this
// port emulates "moving invalidates the source": the first caller to
// Get/Share wins a compare-and-swap on consumed, and every other alias
// observes Valid() == false afterwards.
type futureHandle[T any] struct {
	*futureState[T]
}

// Future is the consumer side of a shared state: non-shared, exclusively
// owning, lazy-continuable, and optionally stoppable. It collapses what
// would otherwise be a family of distinct future types (plain, stoppable,
// and their continuable variants) into one type plus a runtime-checkable
// capability flag.
type Future[T any] struct {
	h *futureHandle[T]
}

// newFuture wraps st (and, if valid, stop) in a fresh handle, and
// registers its GC-triggered cleanup fallback.
func newFuture[T any](st *sharedState[T], stop StopSource) Future[T] {
	f := Future[T]{h: &futureHandle[T]{futureState: &futureState[T]{st: st, stop: stop}}}
	return f.enableCleanup()
}

// Valid reports whether this handle still owns unconsumed state.
func (f Future[T]) Valid() bool {
	return f.h != nil && !f.h.consumed.Load()
}

// IsReady reports whether the antecedent has settled, without blocking.
func (f Future[T]) IsReady() bool {
	return f.h != nil && f.h.st.IsReady()
}

// Wait blocks until the future is ready.
func (f Future[T]) Wait() {
	if f.h == nil {
		return
	}
	f.h.st.wait()
}

// WaitFor blocks until ready or d elapses.
func (f Future[T]) WaitFor(d time.Duration) Status {
	if f.h == nil {
		return Ready
	}
	return f.h.st.waitFor(d)
}

// WaitUntil blocks until ready or the deadline passes.
func (f Future[T]) WaitUntil(deadline time.Time) Status {
	if f.h == nil {
		return Ready
	}
	return f.h.st.waitUntil(deadline)
}

// Err blocks until ready and returns the settled error, if any.
func (f Future[T]) Err() error {
	if f.h == nil {
		return ErrNoState
	}
	_, err := f.h.st.get()
	return err
}

// Get blocks until the future is ready (or ctx is done) and consumes it:
// subsequent calls to Get, Share, or any method observing Valid() will
// see the future invalidated. Passing a nil ctx is equivalent to
// context.Background(); the blocking path is otherwise identical to Wait.
func (f Future[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if f.h == nil {
		return zero, ErrNoState
	}
	if !f.h.consumed.CompareAndSwap(false, true) {
		return zero, ErrNoState
	}
	if ctx == nil || ctx.Done() == nil {
		return f.h.st.get()
	}
	done := make(chan struct{})
	go func() {
		f.h.st.wait()
		close(done)
	}()
	select {
	case <-done:
		val, err, _ := f.h.st.peek()
		return val, err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Share converts this (now-invalidated) Future into a [SharedFuture]
// referencing the same state. The source Future is invalidated even if
// Share is never called again, matching the "moves on assignment, and
// consuming use invalidates" contract — Share itself is the consuming use
// here, analogous to Get.
func (f Future[T]) Share() SharedFuture[T] {
	if f.h == nil || !f.h.consumed.CompareAndSwap(false, true) {
		return SharedFuture[T]{}
	}
	rc := new(atomic.Int64)
	rc.Store(1)
	return SharedFuture[T]{st: f.h.st, stop: f.h.stop, refs: rc}
}

// Detach disables the "wait at Close" join behaviour: Close becomes a
// cheap no-op and pending continuations are left to run on their own
// executors in their own time.
func (f Future[T]) Detach() {
	if f.h != nil {
		f.h.detached.Store(true)
	}
}

// AddWaiter registers an external notifier channel fired once on
// settlement (used by [WhenAnyFuture]'s notifier-mode side channel).
func (f Future[T]) AddWaiter(ch chan<- struct{}) (handle int, alreadyReady bool) {
	if f.h == nil {
		return 0, true
	}
	return f.h.st.addWaiter(ch)
}

// RemoveWaiter deregisters a notifier added via AddWaiter.
func (f Future[T]) RemoveWaiter(handle int) {
	if f.h != nil {
		f.h.st.removeWaiter(handle)
	}
}

// IsStoppable reports whether this future carries a [StopSource].
func (f Future[T]) IsStoppable() bool {
	return f.h != nil && f.h.stop.Valid()
}

// RequestStop requests cancellation on this future's stop source. A
// no-op, returning false, if the future is not stoppable.
func (f Future[T]) RequestStop() bool {
	if f.h == nil {
		return false
	}
	return f.h.stop.RequestStop()
}

// StopSource returns this future's stop source (zero value if not
// stoppable — check IsStoppable first).
func (f Future[T]) StopSource() StopSource {
	if f.h == nil {
		return StopSource{}
	}
	return f.h.stop
}

// StopToken returns a view of this future's stop source.
func (f Future[T]) StopToken() StopToken {
	if f.h == nil {
		return StopToken{}
	}
	return f.h.stop.Token()
}

// Close implements the "joining future" destructor policy: if not
// detached and not already consumed, it requests stop (if stoppable),
// waits for settlement, and forces any pending continuations to run
// before returning. Idempotent. Call sites that construct a Future they
// do not hand back to a caller should `defer f.Close()` explicitly; the
// GC-triggered cleanup registered by newFuture is a fallback for the
// cases that don't.
func (f Future[T]) Close() error {
	if f.h == nil {
		return ErrNoState
	}
	if !f.h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if f.h.detached.Load() || f.h.consumed.Load() {
		return nil
	}
	if f.h.stop.Valid() {
		f.h.stop.RequestStop()
	}
	f.h.st.wait()
	f.h.st.cont.requestRun()
	return nil
}

// enableCleanup registers a best-effort GC-triggered fallback that runs
// Close's join behaviour if every Future referencing this handle is
// dropped without Close ever having been called explicitly. This is a
// safety net against leaked continuations, not a correctness mechanism —
// deterministic call sites should always `defer f.Close()` themselves.
// Logs via the package's structured logger if the cleanup ever actually
// fires, since that indicates a future leaked past its intended scope.
//
// The cleanup argument is the handle's futureState, not the handle
// itself: runtime.AddCleanup requires the argument not reference the
// watched pointer, or the watched pointer would never be considered
// unreachable and the cleanup would never fire.
func (f Future[T]) enableCleanup() Future[T] {
	fs := f.h.futureState
	runtime.AddCleanup(f.h, func(fs *futureState[T]) {
		if fs.closed.CompareAndSwap(false, true) {
			if fs.detached.Load() || fs.consumed.Load() {
				return
			}
			logGCCleanupFired("future")
			if fs.stop.Valid() {
				fs.stop.RequestStop()
			}
			fs.st.cont.requestRun()
		}
	}, fs)
	return f
}

// SharedFuture is the refcounted, repeatable-Get consumer side: multiple
// goroutines may hold clones and call Get concurrently.
type SharedFuture[T any] struct {
	st   *sharedState[T]
	stop StopSource
	refs *atomic.Int64
}

// Valid reports whether this handle still references live state.
func (s SharedFuture[T]) Valid() bool {
	return s.st != nil
}

// Clone returns a new handle sharing this future's state, incrementing
// the refcount.
func (s SharedFuture[T]) Clone() SharedFuture[T] {
	if s.st == nil {
		return SharedFuture[T]{}
	}
	s.refs.Add(1)
	return s
}

// IsReady reports whether the state has settled, without blocking.
func (s SharedFuture[T]) IsReady() bool {
	return s.st != nil && s.st.IsReady()
}

// Wait blocks until the state settles.
func (s SharedFuture[T]) Wait() {
	if s.st != nil {
		s.st.wait()
	}
}

// WaitFor blocks until ready or d elapses.
func (s SharedFuture[T]) WaitFor(d time.Duration) Status {
	if s.st == nil {
		return Ready
	}
	return s.st.waitFor(d)
}

// WaitUntil blocks until ready or the deadline passes.
func (s SharedFuture[T]) WaitUntil(deadline time.Time) Status {
	if s.st == nil {
		return Ready
	}
	return s.st.waitUntil(deadline)
}

// Err blocks until ready and returns the settled error, if any.
func (s SharedFuture[T]) Err() error {
	if s.st == nil {
		return ErrNoState
	}
	_, err := s.st.get()
	return err
}

// Get blocks until ready (or ctx is done) and returns a copy of the
// settled value; unlike Future.Get, it does not consume the future and
// may be called repeatedly, from any number of goroutines.
func (s SharedFuture[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if s.st == nil {
		return zero, ErrNoState
	}
	if ctx == nil || ctx.Done() == nil {
		return s.st.get()
	}
	done := make(chan struct{})
	go func() {
		s.st.wait()
		close(done)
	}()
	select {
	case <-done:
		val, err, _ := s.st.peek()
		return val, err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// AddWaiter registers an external notifier channel fired once on
// settlement.
func (s SharedFuture[T]) AddWaiter(ch chan<- struct{}) (handle int, alreadyReady bool) {
	if s.st == nil {
		return 0, true
	}
	return s.st.addWaiter(ch)
}

// RemoveWaiter deregisters a notifier added via AddWaiter.
func (s SharedFuture[T]) RemoveWaiter(handle int) {
	if s.st != nil {
		s.st.removeWaiter(handle)
	}
}

// IsStoppable reports whether this future carries a [StopSource].
func (s SharedFuture[T]) IsStoppable() bool {
	return s.stop.Valid()
}

// RequestStop requests cancellation on this future's stop source.
func (s SharedFuture[T]) RequestStop() bool {
	return s.stop.RequestStop()
}

// StopSource returns this future's stop source.
func (s SharedFuture[T]) StopSource() StopSource {
	return s.stop
}

// StopToken returns a view of this future's stop source.
func (s SharedFuture[T]) StopToken() StopToken {
	return s.stop.Token()
}

// Close drops this clone's refcount contribution; once the last clone is
// closed, pending continuations are forced to run, mirroring
// Future.Close's join behaviour.
func (s SharedFuture[T]) Close() error {
	if s.st == nil {
		return ErrNoState
	}
	if s.refs.Add(-1) > 0 {
		return nil
	}
	s.st.wait()
	s.st.cont.requestRun()
	return nil
}
