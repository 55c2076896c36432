package futures

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSharedStateSetValueThenGet(t *testing.T) {
	s := newSharedState[int]()
	require.False(t, s.IsReady())

	require.NoError(t, s.setValue(42))
	require.True(t, s.IsReady())

	v, err := s.get()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSharedStateDoubleSettleErrors(t *testing.T) {
	s := newSharedState[int]()
	require.NoError(t, s.setValue(1))
	require.ErrorIs(t, s.setValue(2), ErrPromiseAlreadySatisfied)
}

func TestSharedStateSetErrorPropagates(t *testing.T) {
	s := newSharedState[int]()
	cause := errors.New("boom")
	require.NoError(t, s.setError(cause))
	_, err := s.get()
	require.ErrorIs(t, err, cause)
}

func TestSharedStateWaitBlocksUntilSettled(t *testing.T) {
	s := newSharedState[string]()
	done := make(chan struct{})
	go func() {
		s.wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned before settlement")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.setValue("ok"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not unblock after settlement")
	}
}

func TestSharedStateWaitForTimesOut(t *testing.T) {
	s := newSharedState[int]()
	status := s.waitFor(10 * time.Millisecond)
	require.Equal(t, Timeout, status)
	require.Equal(t, "timeout", status.String())
}

func TestSharedStateWaitForReady(t *testing.T) {
	s := newSharedState[int]()
	require.NoError(t, s.setValue(7))
	status := s.waitFor(time.Second)
	require.Equal(t, Ready, status)
	require.Equal(t, "ready", status.String())
}

func TestSharedStateSignalOwnerDestroyed(t *testing.T) {
	s := newSharedState[int]()
	s.signalOwnerDestroyed()
	_, err := s.get()
	require.ErrorIs(t, err, ErrBrokenPromise)

	// no-op once already settled
	s.signalOwnerDestroyed()
	_, err = s.get()
	require.ErrorIs(t, err, ErrBrokenPromise)
}

func TestSharedStatePeekNotReady(t *testing.T) {
	s := newSharedState[int]()
	_, _, ok := s.peek()
	require.False(t, ok)
}

func TestSharedStateAddWaiterFiresOnSettle(t *testing.T) {
	s := newSharedState[int]()
	ch := make(chan struct{}, 1)
	_, alreadyReady := s.addWaiter(ch)
	require.False(t, alreadyReady)

	require.NoError(t, s.setValue(1))
	select {
	case <-ch:
	default:
		t.Fatal("waiter was not signalled")
	}
}

func TestSharedStateAddWaiterAlreadyReady(t *testing.T) {
	s := newSharedState[int]()
	require.NoError(t, s.setValue(1))
	_, alreadyReady := s.addWaiter(make(chan struct{}, 1))
	require.True(t, alreadyReady)
}

func TestSharedStateRemoveWaiter(t *testing.T) {
	s := newSharedState[int]()
	ch := make(chan struct{}, 1)
	handle, _ := s.addWaiter(ch)
	s.removeWaiter(handle)

	require.NoError(t, s.setValue(1))
	select {
	case <-ch:
		t.Fatal("removed waiter should not be signalled")
	default:
	}
}

func TestSharedStateConcurrentSettleRaceOnlyOneWins(t *testing.T) {
	s := newSharedState[int]()
	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = s.setValue(idx)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	require.Equal(t, 1, successes)
}
