package futures

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Package-level structured logger: a single global sink guarded by an
// RWMutex, overridable at process start, with a zero-configuration
// default so library code never has to thread a logger through every
// call site.
//
// The sink is backed by logiface + stumpy rather than a hand-rolled
// Logger interface, giving callers a structured, leveled event API with
// a concrete JSON backend out of the box.
var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[*stumpy.Event]
}

func init() {
	globalLogger.logger = stumpy.L.New(stumpy.L.WithStumpy())
}

// SetStructuredLogger overrides the package-level logger used for the
// library's own diagnostics (broken promises, dropped waiters, recovered
// panics, when_any busy-wait promotion). Pass nil to restore the default
// stderr JSON sink.
func SetStructuredLogger(logger *logiface.Logger[*stumpy.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	if logger == nil {
		logger = stumpy.L.New(stumpy.L.WithStumpy())
	}
	globalLogger.logger = logger
}

func getLogger() *logiface.Logger[*stumpy.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

func logGCCleanupFired(kind string) {
	getLogger().Warning().Str("component", kind).Log("futures: GC cleanup fired without an explicit Close/Abandon; a future or promise leaked past its intended scope")
}

func logExecutorPanic(r any) {
	getLogger().Err().Any("panic", r).Log("futures: recovered panic from executor work item")
}

func logDroppedWaiter() {
	getLogger().Warning().Log("futures: dropped notify_when_ready send, channel full")
}

func logWhenAnyPromotion(children int) {
	getLogger().Debug().Int("children", children).Log("futures: when_any promoting from busy-wait to notifier mode")
}

func logContinuationPanic(r any) {
	getLogger().Err().Any("panic", r).Log("futures: recovered panic from a then continuation")
}
