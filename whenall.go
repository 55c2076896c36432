package futures

import (
	"context"
	"sync"
	"time"
)

// WhenAllFuture is the proxy future produced by [WhenAll]: it aggregates
// a homogeneous sequence of child futures without allocating a shared
// state or continuation list of its own — see whenAllAttach, used by
// [ThenAllSlice], for how combinators attach to it instead.
type WhenAllFuture[T any] struct {
	mu       sync.Mutex
	children []Future[T]
	consumed bool
}

// WhenAll constructs a when_all proxy over children. An empty sequence
// is immediately ready.
func WhenAll[T any](children ...Future[T]) WhenAllFuture[T] {
	cp := append([]Future[T](nil), children...)
	return WhenAllFuture[T]{children: cp}
}

// Len reports the number of children.
func (w *WhenAllFuture[T]) Len() int { return len(w.children) }

// IsReady reports whether every child has settled.
func (w *WhenAllFuture[T]) IsReady() bool {
	for _, c := range w.children {
		if !c.IsReady() {
			return false
		}
	}
	return true
}

// Wait blocks until every child has settled.
func (w *WhenAllFuture[T]) Wait() {
	for _, c := range w.children {
		c.Wait()
	}
}

// WaitFor blocks until every child has settled or d elapses, charging
// each child against the same overall deadline.
func (w *WhenAllFuture[T]) WaitFor(d time.Duration) Status {
	deadline := time.Now().Add(d)
	for _, c := range w.children {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if c.IsReady() {
				continue
			}
			return Timeout
		}
		if c.WaitFor(remaining) == Timeout {
			return Timeout
		}
	}
	return Ready
}

// Get blocks until every child settles, then moves the children out of
// w: the returned slice's futures are the same ones passed to WhenAll,
// each still unconsumed. Calling Get twice returns [ErrNoState] on the
// second call.
func (w *WhenAllFuture[T]) Get(ctx context.Context) ([]Future[T], error) {
	w.mu.Lock()
	if w.consumed {
		w.mu.Unlock()
		return nil, ErrNoState
	}
	w.consumed = true
	w.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		done := make(chan struct{})
		go func() { w.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else {
		w.Wait()
	}
	return w.children, nil
}

// Values blocks until every child settles, then unwraps each child's
// value via its own Get, collecting every error (rather than
// short-circuiting on the first) into an [AggregateError] — when_all
// never discards a child's error merely because an earlier child also
// failed.
func (w *WhenAllFuture[T]) Values(ctx context.Context) ([]T, error) {
	children, err := w.Get(ctx)
	if err != nil {
		return nil, err
	}
	vals := make([]T, len(children))
	var errs []error
	for i, c := range children {
		v, cerr := c.Get(ctx)
		if cerr != nil {
			errs = append(errs, cerr)
			continue
		}
		vals[i] = v
	}
	if len(errs) > 0 {
		return vals, &AggregateError{Errors: errs}
	}
	return vals, nil
}

// Merge flattens a sequence of WhenAllFuture proxies into a single one,
// consuming each input: `(a && b) && c` and `a && (b && c)` observably
// coincide. Any ws already consumed contribute no children.
func Merge[T any](ws ...*WhenAllFuture[T]) WhenAllFuture[T] {
	var all []Future[T]
	for _, w := range ws {
		if w == nil {
			continue
		}
		children, err := w.Get(context.Background())
		if err != nil {
			continue
		}
		all = append(all, children...)
	}
	return WhenAllFuture[T]{children: all}
}

// WhenAllFuture2 aggregates two heterogeneously-typed futures (spec
// §4.6.2's tuple form).
type WhenAllFuture2[A, B any] struct {
	mu       sync.Mutex
	a        Future[A]
	b        Future[B]
	consumed bool
}

// WhenAll2 constructs a two-element when_all tuple.
func WhenAll2[A, B any](a Future[A], b Future[B]) WhenAllFuture2[A, B] {
	return WhenAllFuture2[A, B]{a: a, b: b}
}

// IsReady reports whether both children have settled.
func (w *WhenAllFuture2[A, B]) IsReady() bool { return w.a.IsReady() && w.b.IsReady() }

// Wait blocks until both children have settled.
func (w *WhenAllFuture2[A, B]) Wait() {
	w.a.Wait()
	w.b.Wait()
}

// WaitFor blocks until both children settle or d elapses.
func (w *WhenAllFuture2[A, B]) WaitFor(d time.Duration) Status {
	deadline := time.Now().Add(d)
	if w.a.WaitFor(time.Until(deadline)) == Timeout {
		return Timeout
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		if w.b.IsReady() {
			return Ready
		}
		return Timeout
	}
	return w.b.WaitFor(remaining)
}

// Get blocks until both children settle, then moves them out of w.
func (w *WhenAllFuture2[A, B]) Get(ctx context.Context) (Future[A], Future[B], error) {
	w.mu.Lock()
	if w.consumed {
		w.mu.Unlock()
		var za Future[A]
		var zb Future[B]
		return za, zb, ErrNoState
	}
	w.consumed = true
	w.mu.Unlock()
	w.Wait()
	return w.a, w.b, nil
}

// WhenAllFuture3 aggregates three heterogeneously-typed futures.
type WhenAllFuture3[A, B, C any] struct {
	mu       sync.Mutex
	a        Future[A]
	b        Future[B]
	c        Future[C]
	consumed bool
}

// WhenAll3 constructs a three-element when_all tuple.
func WhenAll3[A, B, C any](a Future[A], b Future[B], c Future[C]) WhenAllFuture3[A, B, C] {
	return WhenAllFuture3[A, B, C]{a: a, b: b, c: c}
}

// IsReady reports whether all three children have settled.
func (w *WhenAllFuture3[A, B, C]) IsReady() bool {
	return w.a.IsReady() && w.b.IsReady() && w.c.IsReady()
}

// Wait blocks until all three children have settled.
func (w *WhenAllFuture3[A, B, C]) Wait() {
	w.a.Wait()
	w.b.Wait()
	w.c.Wait()
}

// Get blocks until all three children settle, then moves them out of w.
func (w *WhenAllFuture3[A, B, C]) Get(ctx context.Context) (Future[A], Future[B], Future[C], error) {
	w.mu.Lock()
	if w.consumed {
		w.mu.Unlock()
		var za Future[A]
		var zb Future[B]
		var zc Future[C]
		return za, zb, zc, ErrNoState
	}
	w.consumed = true
	w.mu.Unlock()
	w.Wait()
	return w.a, w.b, w.c, nil
}

// WhenAllFuture4 aggregates four heterogeneously-typed futures.
type WhenAllFuture4[A, B, C, D any] struct {
	mu       sync.Mutex
	a        Future[A]
	b        Future[B]
	c        Future[C]
	d        Future[D]
	consumed bool
}

// WhenAll4 constructs a four-element when_all tuple.
func WhenAll4[A, B, C, D any](a Future[A], b Future[B], c Future[C], d Future[D]) WhenAllFuture4[A, B, C, D] {
	return WhenAllFuture4[A, B, C, D]{a: a, b: b, c: c, d: d}
}

// IsReady reports whether all four children have settled.
func (w *WhenAllFuture4[A, B, C, D]) IsReady() bool {
	return w.a.IsReady() && w.b.IsReady() && w.c.IsReady() && w.d.IsReady()
}

// Wait blocks until all four children have settled.
func (w *WhenAllFuture4[A, B, C, D]) Wait() {
	w.a.Wait()
	w.b.Wait()
	w.c.Wait()
	w.d.Wait()
}

// Get blocks until all four children settle, then moves them out of w.
func (w *WhenAllFuture4[A, B, C, D]) Get(ctx context.Context) (Future[A], Future[B], Future[C], Future[D], error) {
	w.mu.Lock()
	if w.consumed {
		w.mu.Unlock()
		var za Future[A]
		var zb Future[B]
		var zc Future[C]
		var zd Future[D]
		return za, zb, zc, zd, ErrNoState
	}
	w.consumed = true
	w.mu.Unlock()
	w.Wait()
	return w.a, w.b, w.c, w.d, nil
}
