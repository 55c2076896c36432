package futures

import "sync/atomic"

// stopState is the single shared flag backing both [StopSource] and
// [StopToken]. It is refcounted implicitly by however many StopSource/
// StopToken values hold a pointer to it — Go's GC reclaims it once the
// last reference drops, standing in for the source's shared_ptr.
type stopState struct {
	requested atomic.Bool
	sources   atomic.Int64 // live StopSource handles referencing this state
}

// StopSource is a cooperative cancellation signal, shareable across any
// number of futures and their continuations. Requesting a stop is a
// monotonic, idempotent transition: exactly one RequestStop call across
// every source sharing this state returns true.
//
// The zero value is a valid "no state" source: StopPossible reports
// false and RequestStop is a no-op.
type StopSource struct {
	state *stopState
}

// NewStopSource creates a StopSource backed by a fresh, unrequested flag.
func NewStopSource() StopSource {
	s := &stopState{}
	s.sources.Store(1)
	return StopSource{state: s}
}

// Clone returns a new handle sharing this source's state, incrementing
// the live-source refcount used by StopPossible on derived tokens.
func (s StopSource) Clone() StopSource {
	if s.state == nil {
		return StopSource{}
	}
	s.state.sources.Add(1)
	return StopSource{state: s.state}
}

// Release drops this handle's contribution to the live-source refcount.
// It does not invalidate the handle for further RequestStop calls — Go
// values aren't consumed by use — but it affects StopPossible as observed
// by any [StopToken] still watching this state. Callers that Clone a
// source for a single continuation should Release it once that
// continuation has run, the same way a future releases its copy of an
// inherited stop source on completion.
func (s StopSource) Release() {
	if s.state == nil {
		return
	}
	s.state.sources.Add(-1)
}

// RequestStop performs the false→true transition on the shared flag.
// Returns true iff this call performed the transition.
func (s StopSource) RequestStop() bool {
	if s.state == nil {
		return false
	}
	return s.state.requested.CompareAndSwap(false, true)
}

// StopRequested reports whether a stop has been requested.
func (s StopSource) StopRequested() bool {
	return s.state != nil && s.state.requested.Load()
}

// Token returns a [StopToken] view of this source's state.
func (s StopSource) Token() StopToken {
	return StopToken{state: s.state}
}

// Valid reports whether this source has backing state (is not the zero
// value / "no state" sentinel).
func (s StopSource) Valid() bool {
	return s.state != nil
}

// StopToken is a weak-by-intent, read-only view of a [StopSource]'s
// state: it observes the flag but its existence does not keep any source
// alive (it holds the same pointer, but never increments the source
// refcount — only StopSource.Clone does that).
type StopToken struct {
	state *stopState
}

// StopRequested is a relaxed load of the shared flag.
func (t StopToken) StopRequested() bool {
	return t.state != nil && t.state.requested.Load()
}

// StopPossible is true iff the underlying state exists and either a stop
// has already been requested, or at least one [StopSource] handle still
// references it.
func (t StopToken) StopPossible() bool {
	if t.state == nil {
		return false
	}
	return t.state.requested.Load() || t.state.sources.Load() > 0
}

// Valid reports whether this token has backing state.
func (t StopToken) Valid() bool {
	return t.state != nil
}
