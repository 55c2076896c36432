package futures

import "context"

// attachOrDispatch appends runBody (already wrapped to post itself to ex)
// to f's continuation list, or — if the list already ran — posts it to ex
// directly right now. This is the lost-wakeup-avoiding fallback applied
// at every Then* call site.
func attachOrDispatch[T any](ex Executor, f Future[T], runBody func()) {
	wrapped := func() { ex.Post(runBody) }
	if f.h.st.appendContinuation(wrapped) {
		ex.Post(runBody)
	}
}

// inheritedStop resolves stop-source propagation for the no-token Then
// forms: share the antecedent's source if it is stoppable, else the
// result is not stoppable.
func inheritedStop[T any](f Future[T]) StopSource {
	if f.IsStoppable() {
		return f.StopSource().Clone()
	}
	return StopSource{}
}

// tokenStop resolves stop-source propagation for the token-taking Then
// forms: inherit if the antecedent is stoppable, else allocate fresh. The
// result is always stoppable.
func tokenStop[T any](f Future[T]) StopSource {
	if f.IsStoppable() {
		return f.StopSource().Clone()
	}
	return NewStopSource()
}

// Then attaches fn to run once f settles successfully, value-unwrapped:
// fn receives f's value directly. If f settled with an error, fn does not
// run and that error propagates to the result future unchanged.
func Then[T, R any](ex Executor, f Future[T], fn func(T) (R, error)) Future[R] {
	resState := newSharedState[R]()
	resStop := inheritedStop(f)
	result := newFuture(resState, resStop)

	runBody := func() {
		defer func() {
			if resStop.Valid() {
				resStop.Release()
			}
		}()
		val, ferr := f.Get(context.Background())
		if ferr != nil {
			_ = resState.setError(ferr)
			return
		}
		runCapturingPanic(resState, func() (R, error) { return fn(val) })
	}
	attachOrDispatch(ex, f, runBody)
	return result
}

// ThenWithToken is [Then]'s stoppable counterpart: fn additionally
// receives a [StopToken] it may poll for cooperative cancellation. The
// result is always stoppable.
func ThenWithToken[T, R any](ex Executor, f Future[T], fn func(StopToken, T) (R, error)) Future[R] {
	resState := newSharedState[R]()
	resStop := tokenStop(f)
	result := newFuture(resState, resStop)

	runBody := func() {
		defer resStop.Release()
		val, ferr := f.Get(context.Background())
		if ferr != nil {
			_ = resState.setError(ferr)
			return
		}
		tok := resStop.Token()
		runCapturingPanic(resState, func() (R, error) { return fn(tok, val) })
	}
	attachOrDispatch(ex, f, runBody)
	return result
}

// ThenFuture attaches fn to run once f settles, successfully or not,
// passing f itself unconsumed — the "no unwrap" form. fn is responsible
// for calling f.Get (or Err/IsReady) itself; this is the only Then form
// where the antecedent's error does not auto-propagate without fn seeing
// it first.
func ThenFuture[T, R any](ex Executor, f Future[T], fn func(Future[T]) (R, error)) Future[R] {
	resState := newSharedState[R]()
	resStop := inheritedStop(f)
	result := newFuture(resState, resStop)

	runBody := func() {
		defer func() {
			if resStop.Valid() {
				resStop.Release()
			}
		}()
		runCapturingPanic(resState, func() (R, error) { return fn(f) })
	}
	attachOrDispatch(ex, f, runBody)
	return result
}

// ThenFlat attaches fn to run once f settles successfully; fn itself
// returns a Future[R], whose eventual value (or error) becomes the
// result's — a flat-map / double-unwrap form.
func ThenFlat[T, R any](ex Executor, f Future[T], fn func(T) (Future[R], error)) Future[R] {
	resState := newSharedState[R]()
	resStop := inheritedStop(f)
	result := newFuture(resState, resStop)

	runBody := func() {
		defer func() {
			if resStop.Valid() {
				resStop.Release()
			}
		}()
		val, ferr := f.Get(context.Background())
		if ferr != nil {
			_ = resState.setError(ferr)
			return
		}

		inner, err := func() (inner Future[R], err error) {
			defer func() {
				if r := recover(); r != nil {
					err = PanicError{Value: r}
				}
			}()
			return fn(val)
		}()
		if err != nil {
			_ = resState.setError(err)
			return
		}

		iv, ierr := inner.Get(context.Background())
		if ierr != nil {
			_ = resState.setError(ierr)
			return
		}
		_ = resState.setValue(iv)
	}
	attachOrDispatch(ex, f, runBody)
	return result
}

// whenAllAttach is the Then-family fallback for an antecedent with no
// shared state of its own: when_all/when_any proxies aren't
// lazy-continuable (they have nothing to attach a continuation list to),
// so the thunk is deferred to ex immediately, and the thunk itself
// blocks on the antecedent's own Wait before running.
func whenAllAttach(ex Executor, wait func(), runBody func()) {
	ex.Defer(func() {
		wait()
		runBody()
	})
}

// ThenAll2 runs fn once both children of w have settled successfully,
// value-unwrapped. If either child settled with an error, fn does not
// run and the first such error (in child order) propagates to the
// result.
func ThenAll2[A, B, R any](ex Executor, w WhenAllFuture2[A, B], fn func(A, B) (R, error)) Future[R] {
	resState := newSharedState[R]()
	result := newFuture(resState, StopSource{})
	whenAllAttach(ex, w.Wait, func() {
		a, b, err := w.Get(context.Background())
		if err != nil {
			_ = resState.setError(err)
			return
		}
		av, aerr := a.Get(context.Background())
		if aerr != nil {
			_ = resState.setError(aerr)
			return
		}
		bv, berr := b.Get(context.Background())
		if berr != nil {
			_ = resState.setError(berr)
			return
		}
		runCapturingPanic(resState, func() (R, error) { return fn(av, bv) })
	})
	return result
}

// ThenAll3 is [ThenAll2] generalised to three children.
func ThenAll3[A, B, C, R any](ex Executor, w WhenAllFuture3[A, B, C], fn func(A, B, C) (R, error)) Future[R] {
	resState := newSharedState[R]()
	result := newFuture(resState, StopSource{})
	whenAllAttach(ex, w.Wait, func() {
		a, b, c, err := w.Get(context.Background())
		if err != nil {
			_ = resState.setError(err)
			return
		}
		av, aerr := a.Get(context.Background())
		bv, berr := b.Get(context.Background())
		cv, cerr := c.Get(context.Background())
		if aerr != nil {
			_ = resState.setError(aerr)
			return
		}
		if berr != nil {
			_ = resState.setError(berr)
			return
		}
		if cerr != nil {
			_ = resState.setError(cerr)
			return
		}
		runCapturingPanic(resState, func() (R, error) { return fn(av, bv, cv) })
	})
	return result
}

// ThenAll4 is [ThenAll2] generalised to four children.
func ThenAll4[A, B, C, D, R any](ex Executor, w WhenAllFuture4[A, B, C, D], fn func(A, B, C, D) (R, error)) Future[R] {
	resState := newSharedState[R]()
	result := newFuture(resState, StopSource{})
	whenAllAttach(ex, w.Wait, func() {
		a, b, c, d, err := w.Get(context.Background())
		if err != nil {
			_ = resState.setError(err)
			return
		}
		av, aerr := a.Get(context.Background())
		bv, berr := b.Get(context.Background())
		cv, cerr := c.Get(context.Background())
		dv, derr := d.Get(context.Background())
		if aerr != nil {
			_ = resState.setError(aerr)
			return
		}
		if berr != nil {
			_ = resState.setError(berr)
			return
		}
		if cerr != nil {
			_ = resState.setError(cerr)
			return
		}
		if derr != nil {
			_ = resState.setError(derr)
			return
		}
		runCapturingPanic(resState, func() (R, error) { return fn(av, bv, cv, dv) })
	})
	return result
}

// ThenAllSlice runs fn once every element of a homogeneous when_all
// proxy has settled, passing the materialised slice of values (spec
// §4.6.1's "antecedent is when_all over a range" form). A failing
// child does not short-circuit collection; every error is aggregated
// and, if any occurred, propagates as an [AggregateError] instead of fn
// running.
func ThenAllSlice[T, R any](ex Executor, w WhenAllFuture[T], fn func([]T) (R, error)) Future[R] {
	resState := newSharedState[R]()
	result := newFuture(resState, StopSource{})
	whenAllAttach(ex, w.Wait, func() {
		vals, err := w.Values(context.Background())
		if err != nil {
			_ = resState.setError(err)
			return
		}
		runCapturingPanic(resState, func() (R, error) { return fn(vals) })
	})
	return result
}

// ThenAny runs fn once any child of w settles, passing the winning
// child's index and the proxy itself unconsumed. fn is responsible for
// calling w.Get/Children itself if it needs the winning (or any other)
// child's value.
func ThenAny[T, R any](ex Executor, w *WhenAnyFuture[T], fn func(int, *WhenAnyFuture[T]) (R, error)) Future[R] {
	resState := newSharedState[R]()
	result := newFuture(resState, StopSource{})
	whenAllAttach(ex, w.Wait, func() {
		runCapturingPanic(resState, func() (R, error) { return fn(w.winnerIndex(), w) })
	})
	return result
}

// runCapturingPanic runs fn, settling state with its result or error, and
// converts a recovered panic into a [PanicError] settlement instead of
// propagating it onto the executor's worker goroutine.
func runCapturingPanic[R any](state *sharedState[R], fn func() (R, error)) {
	defer func() {
		if r := recover(); r != nil {
			logContinuationPanic(r)
			_ = state.setError(PanicError{Value: r})
		}
	}()
	v, err := fn()
	if err != nil {
		_ = state.setError(err)
		return
	}
	_ = state.setValue(v)
}
