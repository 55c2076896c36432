package futures

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Executor is any object able to enqueue work for later execution. The
// library never spawns its own threads to run user callables — it only
// ever posts, defers, or dispatches onto an Executor.
//
//   - Post enqueues fn for later execution, with no ordering guarantee
//     relative to the caller.
//   - Defer is like Post, but the executor may choose to run fn only
//     after the current call chain unwinds (relevant to executors that
//     batch work per turn, e.g. an event loop's microtask queue).
//   - Dispatch may run fn inline if the calling goroutine is already
//     "on" the executor's context; otherwise it behaves like Post.
type Executor interface {
	Post(fn func())
	Defer(fn func())
	Dispatch(fn func())
	// Context returns an opaque value identifying the executor's owning
	// execution context, so callers can compare two Executor values for
	// "same underlying context" without depending on interface identity.
	Context() any
}

// inlineExecutor runs every submission synchronously, in the calling
// goroutine. It is its own execution context.
type inlineExecutor struct{}

// InlineExecutor runs submitted work synchronously in the calling
// goroutine. Useful for tests and for the Sequenced execution policy.
var InlineExecutor Executor = inlineExecutor{}

func (inlineExecutor) Post(fn func())     { fn() }
func (inlineExecutor) Defer(fn func())    { fn() }
func (inlineExecutor) Dispatch(fn func()) { fn() }
func (inlineExecutor) Context() any       { return inlineExecutor{} }

// poolExecutor is a process-wide worker pool sized to hardware
// concurrency, its worker goroutines started through an [errgroup.Group].
// The workers run for the life of the process; the pool has no shutdown
// or drain operation.
type poolExecutor struct {
	jobs chan func()
	wg   *errgroup.Group
}

// DefaultExecutorSizeEnv names the environment variable read once, at
// first construction, to override the default executor's worker count.
const DefaultExecutorSizeEnv = "GOFUTURES_DEFAULT_EXECUTOR_SIZE"

var (
	defaultExecutorOnce sync.Once
	defaultExecutorInst *poolExecutor
)

// DefaultExecutor returns the process-wide default executor, lazily
// constructed on first call and sized to runtime.GOMAXPROCS(0) unless
// overridden by the GOFUTURES_DEFAULT_EXECUTOR_SIZE environment
// variable. Safe for concurrent use; idempotent across goroutines racing
// the first call.
func DefaultExecutor() Executor {
	defaultExecutorOnce.Do(func() {
		size := runtime.GOMAXPROCS(0)
		if raw := os.Getenv(DefaultExecutorSizeEnv); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				size = n
			}
		}
		defaultExecutorInst = newPoolExecutor(size)
	})
	return defaultExecutorInst
}

func newPoolExecutor(size int) *poolExecutor {
	if size < 1 {
		size = 1
	}
	p := &poolExecutor{jobs: make(chan func(), size*64), wg: &errgroup.Group{}}
	for i := 0; i < size; i++ {
		p.wg.Go(func() error {
			for fn := range p.jobs {
				runProtected(fn)
			}
			return nil
		})
	}
	return p
}

// runProtected runs fn, recovering and logging any panic rather than
// taking down a pool worker goroutine — an executor's job is to run
// opaque work items, not to judge them.
func runProtected(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logExecutorPanic(r)
		}
	}()
	fn()
}

func (p *poolExecutor) Post(fn func())     { p.jobs <- fn }
func (p *poolExecutor) Defer(fn func())    { p.jobs <- fn }
func (p *poolExecutor) Dispatch(fn func()) { p.jobs <- fn }
func (p *poolExecutor) Context() any       { return p }

// Policy is an execution-policy tag, mirroring the standard parallel
// algorithm tags; see [ExecutorFromPolicy].
type Policy int

const (
	// Sequenced requests strictly sequential, in-caller-goroutine
	// execution.
	Sequenced Policy = iota
	// Parallel requests execution across multiple goroutines, with no
	// guarantee callables don't interleave.
	Parallel
	// ParallelUnsequenced additionally permits a callable to be invoked
	// from a goroutine it did not start on (always true of this port —
	// retained for API parity with the source's tag set).
	ParallelUnsequenced
	// Unsequenced permits vectorised/interleaved execution within a
	// single goroutine; this port treats it identically to Sequenced,
	// since Go gives no portable handle on SIMD-style interleaving.
	Unsequenced
)

// ExecutorFromPolicy derives an [Executor] for a policy tag, for callers
// that don't want to pick one explicitly.
func ExecutorFromPolicy(p Policy) Executor {
	switch p {
	case Sequenced, Unsequenced:
		return InlineExecutor
	default:
		return DefaultExecutor()
	}
}
