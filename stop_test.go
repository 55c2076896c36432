package futures

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStopSourceZeroValueIsInert(t *testing.T) {
	var s StopSource
	require.False(t, s.Valid())
	require.False(t, s.RequestStop())
	require.False(t, s.StopRequested())

	tok := s.Token()
	require.False(t, tok.Valid())
	require.False(t, tok.StopPossible())
}

func TestStopSourceRequestStopIsMonotonicAndIdempotent(t *testing.T) {
	s := NewStopSource()
	require.True(t, s.RequestStop())
	require.False(t, s.RequestStop())
	require.True(t, s.StopRequested())
}

func TestStopTokenObservesSource(t *testing.T) {
	s := NewStopSource()
	tok := s.Token()
	require.False(t, tok.StopRequested())
	s.RequestStop()
	require.True(t, tok.StopRequested())
}

func TestStopTokenPossibleTracksSourceRefcount(t *testing.T) {
	s := NewStopSource()
	tok := s.Token()
	require.True(t, tok.StopPossible())

	s.Release()
	require.False(t, tok.StopPossible())

	// once requested, stop remains "possible" (it already happened)
	// regardless of source refcount.
	s2 := NewStopSource()
	tok2 := s2.Token()
	s2.RequestStop()
	s2.Release()
	require.True(t, tok2.StopPossible())
}

func TestStopSourceCloneIncrementsRefcount(t *testing.T) {
	s := NewStopSource()
	clone := s.Clone()
	tok := s.Token()

	s.Release()
	require.True(t, tok.StopPossible()) // clone still holds a reference

	clone.Release()
	require.False(t, tok.StopPossible())
}
