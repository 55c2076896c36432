package futures

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPartitionerStopsAtMinGrain(t *testing.T) {
	part := DefaultPartitioner(4, WithMinGrain(8), WithMaxGrain(2048))
	// n0=64, hwConcurrency=4 -> grain = 64/32 = 2, clamped up to minGrain 8.
	first, last := 0, 64
	for last-first > 8 {
		mid := part(first, last)
		require.Greater(t, mid, first)
		require.Less(t, mid, last)
		last = mid
	}
	require.Equal(t, last, part(first, last))
}

func TestDefaultPartitionerNoSplitBelowGrain(t *testing.T) {
	// n0=10, hwConcurrency=4 -> grain = 10/32 = 0, clamped up to minGrain 16.
	part := DefaultPartitioner(4, WithMinGrain(16))
	require.Equal(t, 10, part(0, 10))
}

func TestDefaultPartitionerRespectsMaxGrainBySplitting(t *testing.T) {
	part := DefaultPartitioner(1, WithMaxGrain(16))
	mid := part(0, 1000)
	require.Equal(t, 500, mid)
}

func TestDefaultPartitionerEmptyRangeReturnsLast(t *testing.T) {
	part := DefaultPartitioner(4)
	require.Equal(t, 5, part(5, 5))
}

func TestDefaultPartitionerDepthCapEventuallyStopsSplitting(t *testing.T) {
	part := DefaultPartitioner(1, WithMinGrain(1), WithMaxGrain(1<<30))
	first, last := 0, 1<<20
	splits := 0
	for splits < 1000 {
		mid := part(first, last)
		if mid == last {
			break
		}
		last = mid
		splits++
	}
	require.Less(t, splits, 100)
}
