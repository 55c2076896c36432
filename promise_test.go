package futures

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPromiseSetValueAndGetFuture(t *testing.T) {
	p := NewPromise[int]()
	f, err := p.GetFuture()
	require.NoError(t, err)

	require.NoError(t, p.SetValue(9))
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, v)
}

func TestPromiseGetFutureTwiceErrors(t *testing.T) {
	p := NewPromise[int]()
	_, err := p.GetFuture()
	require.NoError(t, err)
	_, err = p.GetFuture()
	require.ErrorIs(t, err, ErrFutureAlreadyRetrieved)
}

func TestPromiseAbandonBreaksPromise(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	p.Abandon()

	_, err := f.Get(context.Background())
	require.ErrorIs(t, err, ErrBrokenPromise)
}

func TestPromiseSetErrorPropagates(t *testing.T) {
	p := NewPromise[int]()
	f, _ := p.GetFuture()
	cause := errors.New("nope")
	require.NoError(t, p.SetError(cause))

	_, err := f.Get(context.Background())
	require.ErrorIs(t, err, cause)
}

func TestStoppablePromiseFutureIsStoppable(t *testing.T) {
	p := NewStoppablePromise[int]()
	f, _ := p.GetFuture()
	require.True(t, f.IsStoppable())
	require.True(t, f.RequestStop())
	require.True(t, f.StopToken().StopRequested())
}

func TestPackagedTaskRunSettlesFuture(t *testing.T) {
	task := NewPackagedTask(func() (int, error) { return 5, nil })
	f, err := task.GetFuture()
	require.NoError(t, err)

	task.Run()
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestPackagedTaskRunRecoversPanic(t *testing.T) {
	task := NewPackagedTask(func() (int, error) { panic("kaboom") })
	f, _ := task.GetFuture()
	task.Run()

	_, err := f.Get(context.Background())
	require.Error(t, err)
	var pe PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "kaboom", pe.Value)
}

func TestPackagedTaskReset(t *testing.T) {
	task := NewPackagedTask(func() (int, error) { return 1, nil })
	f1, _ := task.GetFuture()
	task.Run()
	_, _ = f1.Get(context.Background())

	task.Reset()
	f2, err := task.GetFuture()
	require.NoError(t, err)
	task.Run()
	v, err := f2.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}
