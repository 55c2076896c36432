package futures

import "time"

// whenAnyOptions holds configuration for [WhenAny]'s busy-wait/notifier
// policy.
type whenAnyOptions struct {
	initialBackoff  time.Duration
	backoffGrowth   float64
	busyWaitBudget  time.Duration
	executor        Executor
	lazyContinuable bool
}

// WhenAnyOption configures [WhenAny].
type WhenAnyOption interface {
	applyWhenAny(*whenAnyOptions)
}

type whenAnyOptionFunc func(*whenAnyOptions)

func (f whenAnyOptionFunc) applyWhenAny(o *whenAnyOptions) { f(o) }

// WithInitialBackoff sets the starting per-child busy-wait poll interval
// (default 1ns).
func WithInitialBackoff(d time.Duration) WhenAnyOption {
	return whenAnyOptionFunc(func(o *whenAnyOptions) {
		if d > 0 {
			o.initialBackoff = d
		}
	})
}

// WithBackoffGrowth sets the exponential growth factor applied to the
// busy-wait interval after each unsuccessful pass (default 5/4).
func WithBackoffGrowth(factor float64) WhenAnyOption {
	return whenAnyOptionFunc(func(o *whenAnyOptions) {
		if factor > 1 {
			o.backoffGrowth = factor
		}
	})
}

// WithBusyWaitBudget sets the wall-clock budget the busy-wait path is
// given before promoting to notifier mode (default 5s, or the caller's
// remaining timeout, whichever is smaller).
func WithBusyWaitBudget(d time.Duration) WhenAnyOption {
	return whenAnyOptionFunc(func(o *whenAnyOptions) {
		if d > 0 {
			o.busyWaitBudget = d
		}
	})
}

// WithNotifierExecutor sets the executor that a woken notifier posts its
// winner-recording step to, once [WhenAny] has promoted to notifier mode
// (default [DefaultExecutor]). The notifier goroutines themselves are not
// run on it.
func WithNotifierExecutor(ex Executor) WhenAnyOption {
	return whenAnyOptionFunc(func(o *whenAnyOptions) {
		if ex != nil {
			o.executor = ex
		}
	})
}

// WithLazyContinuableChildren tells [WhenAny] that every child future
// supports cheap side-channel registration, so it should skip the
// busy-wait/backoff machinery entirely and register a notifier directly.
// All [Future] values in this module in fact satisfy this, but the
// busy-wait path defaults on since it gives a faster result than
// notifier-mode registration overhead when a winner settles quickly;
// pass true to take the cheaper shortcut instead.
func WithLazyContinuableChildren(lazy bool) WhenAnyOption {
	return whenAnyOptionFunc(func(o *whenAnyOptions) {
		o.lazyContinuable = lazy
	})
}

func resolveWhenAnyOptions(opts []WhenAnyOption) *whenAnyOptions {
	cfg := &whenAnyOptions{
		initialBackoff: time.Nanosecond,
		backoffGrowth:  1.25,
		busyWaitBudget: 5 * time.Second,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.applyWhenAny(cfg)
	}
	if cfg.executor == nil {
		cfg.executor = DefaultExecutor()
	}
	return cfg
}

// partitionOptions holds configuration for the [parallel] package's
// default partitioner.
type partitionOptions struct {
	minGrain int
	maxGrain int
}

// PartitionOption configures [DefaultPartitioner].
type PartitionOption interface {
	applyPartition(*partitionOptions)
}

type partitionOptionFunc func(*partitionOptions)

func (f partitionOptionFunc) applyPartition(o *partitionOptions) { f(o) }

// WithMinGrain overrides the minimum grain size a split may produce
// (default: 1).
func WithMinGrain(n int) PartitionOption {
	return partitionOptionFunc(func(o *partitionOptions) {
		if n > 0 {
			o.minGrain = n
		}
	})
}

// WithMaxGrain overrides the maximum grain size (default: 2048).
func WithMaxGrain(n int) PartitionOption {
	return partitionOptionFunc(func(o *partitionOptions) {
		if n > 0 {
			o.maxGrain = n
		}
	})
}

func resolvePartitionOptions(opts []PartitionOption) *partitionOptions {
	cfg := &partitionOptions{minGrain: 1, maxGrain: 2048}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.applyPartition(cfg)
	}
	return cfg
}
