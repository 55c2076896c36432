package parallel

import (
	"sync/atomic"
	"testing"

	futures "github.com/joeycumines/go-futures"
	"github.com/stretchr/testify/require"
)

func seqInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestForEachVisitsEveryElement(t *testing.T) {
	data := seqInts(100)
	var sum atomic.Int64
	err := ForEach(data, func(v int) error {
		sum.Add(int64(v))
		return nil
	}, WithExecutor(futures.InlineExecutor), WithHardwareConcurrency(4))
	require.NoError(t, err)
	require.EqualValues(t, 4950, sum.Load())
}

func TestForEachAggregatesErrorsAcrossSplit(t *testing.T) {
	data := seqInts(20)
	err := ForEach(data, func(v int) error {
		if v%5 == 0 {
			return errBoom
		}
		return nil
	}, WithExecutor(futures.InlineExecutor), WithHardwareConcurrency(4), WithPartitionOptions(futures.WithMinGrain(1)))
	require.Error(t, err)
}

func TestCountCountsMatchingElements(t *testing.T) {
	data := seqInts(50)
	n := Count(data, func(v int) bool { return v%2 == 0 }, WithExecutor(futures.InlineExecutor))
	require.Equal(t, 25, n)
}

func TestReduceSumsAllElements(t *testing.T) {
	data := seqInts(10)
	sum := Reduce(data, 0, func(acc, v int) int { return acc + v }, WithExecutor(futures.InlineExecutor))
	require.Equal(t, 45, sum)
}

func TestFindReturnsMatchingIndex(t *testing.T) {
	data := seqInts(100)
	idx := Find(data, func(v int) bool { return v == 77 }, WithExecutor(futures.InlineExecutor))
	require.Equal(t, 77, idx)
}

func TestFindReturnsNegativeOneWhenAbsent(t *testing.T) {
	data := seqInts(50)
	idx := Find(data, func(v int) bool { return v == 999 }, WithExecutor(futures.InlineExecutor))
	require.Equal(t, -1, idx)
}

func TestFindOnEmptySlice(t *testing.T) {
	idx := Find([]int{}, func(v int) bool { return true }, WithExecutor(futures.InlineExecutor))
	require.Equal(t, -1, idx)
}

func TestAnyOfAllOfNoneOf(t *testing.T) {
	data := seqInts(20)
	require.True(t, AnyOf(data, func(v int) bool { return v == 10 }, WithExecutor(futures.InlineExecutor)))
	require.False(t, AnyOf(data, func(v int) bool { return v == 999 }, WithExecutor(futures.InlineExecutor)))
	require.True(t, AllOf(data, func(v int) bool { return v < 20 }, WithExecutor(futures.InlineExecutor)))
	require.False(t, AllOf(data, func(v int) bool { return v < 10 }, WithExecutor(futures.InlineExecutor)))
	require.True(t, NoneOf(data, func(v int) bool { return v == 999 }, WithExecutor(futures.InlineExecutor)))
	require.False(t, NoneOf(data, func(v int) bool { return v == 10 }, WithExecutor(futures.InlineExecutor)))
}

func TestForEachOnRealExecutorWithBoundedInFlight(t *testing.T) {
	data := seqInts(200)
	var sum atomic.Int64
	err := ForEach(data, func(v int) error {
		sum.Add(1)
		return nil
	}, WithMaxInFlightSplits(2))
	require.NoError(t, err)
	require.EqualValues(t, 200, sum.Load())
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
