package futures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureGetConsumesOnce(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	require.NoError(t, p.SetValue(3))

	require.True(t, f.Valid())
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.False(t, f.Valid())

	_, err = f.Get(context.Background())
	require.ErrorIs(t, err, ErrNoState)
}

func TestFutureGetRespectsContextCancellation(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureWaitForTimeout(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	require.Equal(t, Timeout, f.WaitFor(10*time.Millisecond))
}

func TestFutureShareInvalidatesSourceAndAllowsMultiGet(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	require.NoError(t, p.SetValue(11))

	sf := f.Share()
	require.False(t, f.Valid())
	require.True(t, sf.Valid())

	v1, err1 := sf.Get(context.Background())
	v2, err2 := sf.Get(context.Background())
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, 11, v1)
	require.Equal(t, 11, v2)
}

func TestSharedFutureCloneRefcounts(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	require.NoError(t, p.SetValue(1))
	sf := f.Share()
	clone := sf.Clone()

	require.NoError(t, sf.Close())
	require.NoError(t, clone.Close())
}

func TestFutureDetachMakesCloseANoOp(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	f.Detach()
	require.NoError(t, f.Close())
}

func TestFutureNotStoppableByDefault(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	require.False(t, f.IsStoppable())
	require.False(t, f.RequestStop())
}

func TestFutureAddRemoveWaiter(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	ch := make(chan struct{}, 1)
	handle, alreadyReady := f.AddWaiter(ch)
	require.False(t, alreadyReady)

	require.NoError(t, p.SetValue(1))
	select {
	case <-ch:
	default:
		t.Fatal("waiter not fired")
	}
	f.RemoveWaiter(handle) // no-op after firing, must not panic
}
