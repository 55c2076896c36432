package futures

import (
	"math"
	"sync"
)

// Partitioner decides, given the half-open range [first, last), where to
// split a data-parallel task in two. Returning last itself means "solve
// this range inline, do not split further"; the [parallel] package
// consumes this contract.
type Partitioner func(first, last int) (middle int)

// DefaultPartitioner returns a Partitioner that halves the range until
// its grain size drops to clamp(n/(8*hwConcurrency), minGrain, maxGrain),
// where n is the size of the first range it is called with, or
// until the recursive split depth crosses log2(hwConcurrency)+2 —
// whichever comes first. The depth cap stands in for a "stop splitting
// once work has fanned out enough" heuristic: Go has no cheap "query
// current OS thread" primitive, and goroutines migrate across threads by
// design, so recursion depth is the portable proxy (see DESIGN.md).
func DefaultPartitioner(hwConcurrency int, opts ...PartitionOption) Partitioner {
	if hwConcurrency < 1 {
		hwConcurrency = 1
	}
	cfg := resolvePartitionOptions(opts)
	depthCap := int(math.Log2(float64(hwConcurrency))) + 2

	// The depth cap needs the size of the original top-level range to
	// turn a current (first, last) slice into "halvings so far" — that
	// size is whatever the first call to this Partitioner instance sees,
	// latched once via sync.Once since a single Partitioner value is
	// only ever handed one top-level range by the parallel package.
	var once sync.Once
	var n0 int

	return func(first, last int) int {
		n := last - first
		if n <= 0 {
			return last
		}
		once.Do(func() { n0 = n })

		grain := n0 / (8 * hwConcurrency)
		if grain < cfg.minGrain {
			grain = cfg.minGrain
		}
		if grain > cfg.maxGrain {
			grain = cfg.maxGrain
		}
		if n <= grain {
			return last
		}

		depth := 0
		for r := n0; r > n; r /= 2 {
			depth++
		}
		if depth >= depthCap {
			return last
		}

		return first + n/2
	}
}
