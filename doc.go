// Package futures provides a promise/future/packaged-task library
// extended with cooperative cancellation, lazy continuations, and
// heterogeneous when_all/when_any combinators.
//
// # Core Types
//
// [Promise] is the producer side of a shared state; [Future] is the
// exclusively-owning, single-consumer reader; [SharedFuture] is its
// refcounted, repeatable-read counterpart (via [Future.Share]). Every
// future is lazy-continuable — attaching work via [Then] and its
// siblings never spawns a polling thread — and optionally stoppable,
// carrying a [StopSource]/[StopToken] pair for cooperative cancellation.
//
// # Combinators
//
//	f := futures.Then(ex, antecedent, func(v T) (R, error) { ... })
//	w := futures.WhenAll(f1, f2, f3)
//	any := futures.WhenAny([]futures.Future[T]{f1, f2, f3})
//
// [Then] and its siblings ([ThenWithToken], [ThenFuture], [ThenFlat],
// [ThenAll2], [ThenAll3], [ThenAll4], [ThenAllSlice], [ThenAny]) choose
// their unwrap behaviour by which function is called, standing in for
// the source library's compile-time overload resolution on parameter
// shape — Go has no function overloading, so the axis that was once a
// single `then` name is expressed here as a family of distinct names.
//
// # Execution Model
//
// The library never spawns its own goroutines to run user callables —
// it only ever calls [Executor.Post]/[Executor.Defer]/[Executor.Dispatch].
// [DefaultExecutor] is a process-wide worker pool sized to
// runtime.GOMAXPROCS(0); [InlineExecutor] runs synchronously for tests
// and the [Sequenced] execution policy.
//
// # Data-Parallel Algorithms
//
// The [parallel] subpackage builds for_each/find/count/reduce/any_of/
// all_of/none_of on top of this package's Executor and StopSource,
// recursively splitting a range via a [Partitioner] and joining through
// ordinary futures.
//
// # Diagnostics
//
// Broken promises, dropped waiter notifications, recovered panics, and
// when_any's busy-wait→notifier promotion are all logged through a
// package-level structured logger (see [SetStructuredLogger]), and
// settle-latency/busy-wait-iteration distributions are available via
// [Metrics] when installed with [SetDefaultMetrics].
package futures
