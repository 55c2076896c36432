// Package parallel implements data-parallel algorithms — for_each, find,
// count, reduce, any_of, all_of, none_of — that recursively split a
// range and dispatch the right half onto a futures.Executor while the
// left half continues on the calling goroutine, joining via the core
// futures package. It is a client of futures, not a core component.
package parallel

import (
	"context"
	"runtime"

	futures "github.com/joeycumines/go-futures"
	"golang.org/x/sync/semaphore"
)

// Config holds tunable knobs for the recursive splitter.
type Config struct {
	executor    futures.Executor
	partOpts    []futures.PartitionOption
	hwConc      int
	maxInFlight int64
}

// Option configures a parallel algorithm call.
type Option func(*Config)

// WithExecutor overrides the executor right-hand splits are dispatched
// to (default [futures.DefaultExecutor]).
func WithExecutor(ex futures.Executor) Option {
	return func(c *Config) {
		if ex != nil {
			c.executor = ex
		}
	}
}

// WithHardwareConcurrency overrides the assumed hardware parallelism fed
// to the default partitioner (default runtime.GOMAXPROCS(0)).
func WithHardwareConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.hwConc = n
		}
	}
}

// WithPartitionOptions forwards grain-size overrides to
// [futures.DefaultPartitioner].
func WithPartitionOptions(opts ...futures.PartitionOption) Option {
	return func(c *Config) { c.partOpts = opts }
}

// WithMaxInFlightSplits bounds the number of outstanding right-hand
// splits dispatched to the executor at once, via a
// golang.org/x/sync/semaphore weighted semaphore — protecting a bounded
// executor from being handed more concurrent work than it, or the
// caller, can usefully run. A split that finds the bound reached runs
// inline on the calling goroutine. 0 (the default) means unbounded.
func WithMaxInFlightSplits(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

func resolve(opts []Option) *Config {
	cfg := &Config{hwConc: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.executor == nil {
		cfg.executor = futures.DefaultExecutor()
	}
	return cfg
}

// splitter bundles the state shared across one top-level call's
// recursion tree: the executor, the partitioner (latched to the
// top-level range's size, per futures.DefaultPartitioner), and an
// optional semaphore bounding in-flight right-hand spawns.
type splitter struct {
	ex   futures.Executor
	part futures.Partitioner
	sem  *semaphore.Weighted
	ctx  context.Context
}

func newSplitter(cfg *Config) *splitter {
	var sem *semaphore.Weighted
	if cfg.maxInFlight > 0 {
		sem = semaphore.NewWeighted(cfg.maxInFlight)
	}
	return &splitter{
		ex:   cfg.executor,
		part: futures.DefaultPartitioner(cfg.hwConc, cfg.partOpts...),
		sem:  sem,
		ctx:  context.Background(),
	}
}

// spawnRight posts fn to the splitter's executor and returns a future
// for its result. If an in-flight semaphore is configured, a slot is
// taken first (released once fn completes); when no slot is free, fn
// runs inline on the calling goroutine instead of being posted.
func spawnRight[R any](s *splitter, fn func() R) futures.Future[R] {
	p := futures.NewPromise[R]()
	fut, _ := p.GetFuture()
	if s.sem != nil && !s.sem.TryAcquire(1) {
		_ = p.SetValue(fn())
		return fut
	}
	s.ex.Post(func() {
		if s.sem != nil {
			defer s.sem.Release(1)
		}
		_ = p.SetValue(fn())
	})
	return fut
}

// ForEach applies fn to every element of data, recursively splitting
// across ex. Does not short-circuit: every grain still runs (spec's
// for_each has no notion of early exit). Within one grain only the first
// error is kept; where both halves of a split fail, their errors are
// combined into a [futures.AggregateError].
func ForEach[T any](data []T, fn func(T) error, opts ...Option) error {
	if len(data) == 0 {
		return nil
	}
	s := newSplitter(resolve(opts))
	return forEachRange(s, data, fn, 0, len(data))
}

func forEachRange[T any](s *splitter, data []T, fn func(T) error, first, last int) error {
	mid := s.part(first, last)
	if mid == last {
		var err error
		for i := first; i < last; i++ {
			if e := fn(data[i]); e != nil && err == nil {
				err = e
			}
		}
		return err
	}

	rightFut := spawnRight(s, func() error { return forEachRange(s, data, fn, mid, last) })
	leftErr := forEachRange(s, data, fn, first, mid)
	rightErr, _ := rightFut.Get(s.ctx)

	if leftErr != nil && rightErr != nil {
		return &futures.AggregateError{Errors: []error{leftErr, rightErr}}
	}
	if leftErr != nil {
		return leftErr
	}
	return rightErr
}

// Count returns the number of elements satisfying pred, recursively
// split across ex.
func Count[T any](data []T, pred func(T) bool, opts ...Option) int {
	if len(data) == 0 {
		return 0
	}
	s := newSplitter(resolve(opts))
	return countRange(s, data, pred, 0, len(data))
}

func countRange[T any](s *splitter, data []T, pred func(T) bool, first, last int) int {
	mid := s.part(first, last)
	if mid == last {
		n := 0
		for i := first; i < last; i++ {
			if pred(data[i]) {
				n++
			}
		}
		return n
	}
	rightFut := spawnRight(s, func() int { return countRange(s, data, pred, mid, last) })
	left := countRange(s, data, pred, first, mid)
	right, _ := rightFut.Get(s.ctx)
	return left + right
}

// Reduce folds data into a single value via combine, starting from
// identity, recursively splitting across ex. combine must be
// associative; identity must be its two-sided identity element.
func Reduce[T any](data []T, identity T, combine func(acc, elem T) T, opts ...Option) T {
	if len(data) == 0 {
		return identity
	}
	s := newSplitter(resolve(opts))
	return reduceRange(s, data, identity, combine, 0, len(data))
}

func reduceRange[T any](s *splitter, data []T, identity T, combine func(acc, elem T) T, first, last int) T {
	mid := s.part(first, last)
	if mid == last {
		acc := identity
		for i := first; i < last; i++ {
			acc = combine(acc, data[i])
		}
		return acc
	}
	rightFut := spawnRight(s, func() T { return reduceRange(s, data, identity, combine, mid, last) })
	left := reduceRange(s, data, identity, combine, first, mid)
	right, _ := rightFut.Get(s.ctx)
	return combine(left, right)
}

// Find returns the index of the first element satisfying pred, or -1.
// The right-hand split is tagged with its own stop source: if the left
// half finds a match first, the right-hand future is told to stop and
// detached rather than waited on.
func Find[T any](data []T, pred func(T) bool, opts ...Option) int {
	if len(data) == 0 {
		return -1
	}
	s := newSplitter(resolve(opts))
	return findRange(s, data, pred, 0, len(data), futures.StopToken{})
}

func findRange[T any](s *splitter, data []T, pred func(T) bool, first, last int, tok futures.StopToken) int {
	if tok.Valid() && tok.StopRequested() {
		return -1
	}
	mid := s.part(first, last)
	if mid == last {
		for i := first; i < last; i++ {
			if tok.Valid() && tok.StopRequested() {
				return -1
			}
			if pred(data[i]) {
				return i
			}
		}
		return -1
	}

	rightStop := futures.NewStopSource()
	rightTok := rightStop.Token()
	rightFut := spawnRight(s, func() int { return findRange(s, data, pred, mid, last, rightTok) })

	leftIdx := findRange(s, data, pred, first, mid, tok)
	if leftIdx >= 0 {
		rightStop.RequestStop()
		rightFut.Detach()
		rightStop.Release()
		return leftIdx
	}
	rightStop.Release()
	rightIdx, _ := rightFut.Get(s.ctx)
	return rightIdx
}

// AnyOf reports whether any element satisfies pred. When a left-hand
// half finds a match, its right-hand sibling split's stop source is
// requested and that future detached; a match found in a right-hand half
// does not stop its left-hand sibling, which runs to completion.
func AnyOf[T any](data []T, pred func(T) bool, opts ...Option) bool {
	return Find(data, pred, opts...) >= 0
}

// AllOf reports whether every element satisfies pred, short-circuiting
// as soon as any element fails it.
func AllOf[T any](data []T, pred func(T) bool, opts ...Option) bool {
	return !AnyOf(data, func(v T) bool { return !pred(v) }, opts...)
}

// NoneOf reports whether no element satisfies pred.
func NoneOf[T any](data []T, pred func(T) bool, opts ...Option) bool {
	return !AnyOf(data, pred, opts...)
}
