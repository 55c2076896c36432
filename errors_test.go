package futures

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuturesErrorIsMatchesCategory(t *testing.T) {
	require.True(t, errors.Is(ErrBrokenPromise, ErrBrokenPromise))
	require.False(t, errors.Is(ErrBrokenPromise, ErrNoState))
}

func TestFuturesErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := newError(CategoryBrokenPromise, "wrapped", cause)
	require.ErrorIs(t, wrapped, cause)
}

func TestPanicErrorUnwrapsErrorValue(t *testing.T) {
	cause := errors.New("inner")
	pe := PanicError{Value: cause}
	require.ErrorIs(t, pe, cause)
	require.Contains(t, pe.Error(), "inner")
}

func TestPanicErrorNonErrorValue(t *testing.T) {
	pe := PanicError{Value: "splat"}
	require.Nil(t, pe.Unwrap())
	require.Contains(t, pe.Error(), "splat")
}

func TestAggregateErrorCollectsEveryCause(t *testing.T) {
	e1 := errors.New("one")
	e2 := errors.New("two")
	agg := &AggregateError{Errors: []error{e1, e2}}
	require.ErrorIs(t, agg, e1)
	require.ErrorIs(t, agg, e2)
	require.Len(t, agg.Unwrap(), 2)
}
