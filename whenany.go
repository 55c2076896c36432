package futures

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// WhenAnyResult is what [WhenAnyFuture.Get] hands back: the index of a
// child that was ready when the winner was recorded, and that child
// future itself, unconsumed. If several children are ready by then, the
// recorded one is not necessarily the first of them to have settled.
type WhenAnyResult[T any] struct {
	Index  int
	Winner Future[T]
}

// notifierTask tracks one spawned when_any notifier goroutine: a cancel
// flag it checks after waking, and a done channel the owner joins on
// teardown so destruction never races a notifier still touching shared
// fields.
type notifierTask struct {
	cancel atomic.Bool
	done   chan struct{}
}

// WhenAnyFuture is the proxy future produced by [WhenAny]: a dual-mode
// wait policy, busy-waiting with exponential backoff until a budget
// elapses, then promoting to per-child notifier goroutines if the child
// count does not exceed the host's parallelism.
type WhenAnyFuture[T any] struct {
	children []Future[T]
	opts     *whenAnyOptions

	mu        sync.Mutex
	cond      *sync.Cond
	winner    int
	notifiers []*notifierTask
	promoted  bool
	consumed  bool
	cursor    int
}

// WhenAny constructs a when_any proxy over children. An empty sequence
// is immediately ready with Index -1; a single-child sequence degenerates
// to that child's own waits.
func WhenAny[T any](children []Future[T], opts ...WhenAnyOption) *WhenAnyFuture[T] {
	cfg := resolveWhenAnyOptions(opts)
	w := &WhenAnyFuture[T]{
		children: append([]Future[T](nil), children...),
		opts:     cfg,
		winner:   -1,
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// IsReady reports, without blocking, whether a winner has already been
// found (polling every child once as a cheap fallback when no notifier
// has been promoted yet).
func (w *WhenAnyFuture[T]) IsReady() bool {
	if len(w.children) == 0 {
		return true
	}
	w.mu.Lock()
	r := w.winner >= 0
	w.mu.Unlock()
	if r {
		return true
	}
	for _, c := range w.children {
		if c.IsReady() {
			return true
		}
	}
	return false
}

const whenAnyForever = time.Duration(1<<63 - 1)

// Wait blocks until a winner is found.
func (w *WhenAnyFuture[T]) Wait() { w.WaitFor(whenAnyForever) }

// WaitFor implements the proxy's wait policy:
//  1. empty sequence: ready immediately.
//  2. singleton sequence: delegate to the one child.
//  3. children already promoted to notifier mode, or the caller opted
//     into treating every child as cheaply side-channel-able: wait on
//     the proxy's own condvar.
//  4. otherwise, busy-wait with exponential backoff, polling every
//     child each pass.
//  5. once the busy-wait budget elapses, promote to notifier goroutines
//     if len(children) does not exceed the host's parallelism, then
//     fall through to the condvar wait.
//  6. otherwise, keep busy-waiting past the budget (there would be more
//     notifier goroutines than cores to run them on).
func (w *WhenAnyFuture[T]) WaitFor(d time.Duration) Status {
	n := len(w.children)
	if n == 0 {
		return Ready
	}
	if n == 1 {
		st := w.children[0].WaitFor(d)
		if st == Ready {
			w.setWinner(0)
		}
		return st
	}

	w.mu.Lock()
	alreadyPromoted := w.promoted
	w.mu.Unlock()

	if alreadyPromoted || w.opts.lazyContinuable {
		if !alreadyPromoted {
			w.promote()
		}
		return w.waitCondvar(d)
	}
	return w.busyWait(d)
}

func (w *WhenAnyFuture[T]) busyWait(d time.Duration) Status {
	n := len(w.children)
	deadline := time.Now().Add(d)
	budget := w.opts.busyWaitBudget
	if d < budget {
		budget = d
	}
	budgetDeadline := time.Now().Add(budget)
	backoff := w.opts.initialBackoff
	hw := runtime.GOMAXPROCS(0)
	iterations := 0

	for {
		iterations++
		for i := 0; i < n; i++ {
			idx := (w.cursor + i) % n
			if w.children[idx].IsReady() {
				w.cursor = (idx + 1) % n
				w.setWinner(idx)
				if m := getDefaultMetrics(); m != nil {
					m.RecordBusyWaitIterations(iterations)
				}
				return Ready
			}
		}
		w.cursor = (w.cursor + 1) % n

		now := time.Now()
		if !now.Before(deadline) {
			if m := getDefaultMetrics(); m != nil {
				m.RecordBusyWaitIterations(iterations)
			}
			return Timeout
		}

		if !now.Before(budgetDeadline) {
			if n <= hw {
				if m := getDefaultMetrics(); m != nil {
					m.RecordBusyWaitIterations(iterations)
				}
				w.promote()
				remaining := time.Until(deadline)
				if remaining <= 0 {
					return Timeout
				}
				return w.waitCondvar(remaining)
			}
			// step 6: more children than cores to notify on, keep polling.
		}

		time.Sleep(backoff)
		backoff = time.Duration(float64(backoff) * w.opts.backoffGrowth)
	}
}

// promote registers a side-channel notifier on every child via AddWaiter
// and, for each, spawns a lightweight goroutine that blocks on that
// channel rather than on the child's own Wait — this is what lets a
// child's settlement wake a when_any proxy without the child knowing
// when_any exists. The goroutine itself stays off the configured
// executor (it does nothing but block on a channel recv, which costs no
// OS thread), but the work it does once woken — recording the winner —
// is posted through w.opts.executor, so callers that configured
// [WithNotifierExecutor] control what context that bookkeeping runs on.
func (w *WhenAnyFuture[T]) promote() {
	w.mu.Lock()
	if w.promoted {
		w.mu.Unlock()
		return
	}
	w.promoted = true
	w.notifiers = make([]*notifierTask, len(w.children))
	w.mu.Unlock()

	logWhenAnyPromotion(len(w.children))

	for i, c := range w.children {
		nt := &notifierTask{done: make(chan struct{})}
		w.notifiers[i] = nt
		idx, child := i, c

		ch := make(chan struct{}, 1)
		waiterHandle, alreadyReady := child.AddWaiter(ch)
		if alreadyReady {
			close(nt.done)
			w.opts.executor.Post(func() { w.setWinner(idx) })
			continue
		}

		go func() {
			defer close(nt.done)
			defer child.RemoveWaiter(waiterHandle)
			<-ch
			if nt.cancel.Load() {
				return
			}
			w.opts.executor.Post(func() { w.setWinner(idx) })
		}()
	}
}

func (w *WhenAnyFuture[T]) setWinner(idx int) {
	w.mu.Lock()
	if w.winner == -1 {
		w.winner = idx
	}
	w.mu.Unlock()
	w.cond.Broadcast()
}

func (w *WhenAnyFuture[T]) waitCondvar(d time.Duration) Status {
	deadline := time.Now().Add(d)
	if d >= whenAnyForever/2 {
		deadline = time.Time{}
	}

	timer := time.AfterFunc(d, func() {
		w.mu.Lock()
		w.cond.Broadcast()
		w.mu.Unlock()
	})
	defer timer.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.winner == -1 {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return Timeout
		}
		w.cond.Wait()
	}
	return Ready
}

// Close requests cancellation of any spawned notifier goroutines and
// joins them before returning: cancel every notifier, then wait for each
// to acknowledge, then release the children. Children themselves are not
// cancelled; when_any never owns them exclusively.
func (w *WhenAnyFuture[T]) Close() error {
	w.mu.Lock()
	notifiers := w.notifiers
	w.mu.Unlock()
	for _, nt := range notifiers {
		if nt == nil {
			continue
		}
		nt.cancel.Store(true)
	}
	for _, nt := range notifiers {
		if nt == nil {
			continue
		}
		<-nt.done
	}
	return nil
}

// Get blocks (respecting ctx's deadline/cancellation, if any) until a
// winner is found, then moves the winning child — and every other
// child — out of w. Calling Get twice returns [ErrNoState].
func (w *WhenAnyFuture[T]) Get(ctx context.Context) (WhenAnyResult[T], error) {
	w.mu.Lock()
	if w.consumed {
		w.mu.Unlock()
		return WhenAnyResult[T]{}, ErrNoState
	}
	w.consumed = true
	w.mu.Unlock()

	if len(w.children) == 0 {
		return WhenAnyResult[T]{Index: -1}, nil
	}

	if ctx != nil && ctx.Done() != nil {
		done := make(chan struct{})
		go func() { w.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
			return WhenAnyResult[T]{}, ctx.Err()
		}
	} else {
		w.Wait()
	}

	w.mu.Lock()
	idx := w.winner
	w.mu.Unlock()
	return WhenAnyResult[T]{Index: idx, Winner: w.children[idx]}, nil
}

// winnerIndex returns the currently-known winner index, or -1 if none
// has been found yet. Non-blocking.
func (w *WhenAnyFuture[T]) winnerIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.winner
}

// Children exposes the full set of futures w was constructed with,
// regardless of which one wins — callers that need to inspect or
// eventually consume the non-winning siblings (e.g. to Close them) use
// this instead of Get.
func (w *WhenAnyFuture[T]) Children() []Future[T] {
	return append([]Future[T](nil), w.children...)
}

// MergeAny flattens a sequence of not-yet-waited WhenAnyFuture proxies
// into a single one: `(a || b) || c` and `a || (b || c)` observably
// coincide.
func MergeAny[T any](ws ...*WhenAnyFuture[T]) *WhenAnyFuture[T] {
	var all []Future[T]
	for _, w := range ws {
		if w == nil {
			continue
		}
		all = append(all, w.Children()...)
	}
	return WhenAny(all)
}
