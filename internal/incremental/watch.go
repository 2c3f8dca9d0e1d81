package incremental

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dotnet/docfx-sub027/internal/logfields"
)

// ErrReentrantWatch is the panic value when a Watch factory reads the value
// of the Watch it is computing.
var ErrReentrantWatch = errors.New("incremental: watch value read from its own factory")

// Watch is a lazily computed value that is recomputed only when something
// its last computation read has changed.
type Watch[T any] struct {
	name    string
	factory func(ctx context.Context) T

	// mu is held only while checking or recomputing; fresh values are
	// served from state without locking.
	mu    sync.Mutex
	state atomic.Pointer[watchState[T]]
}

type watchState[T any] struct {
	value T
	fn    *watchFunction
}

// NewWatch creates a Watch computed by factory. The factory must pass the ctx
// it receives to everything it reads so dependencies attach to this Watch.
func NewWatch[T any](factory func(ctx context.Context) T) *Watch[T] {
	return &Watch[T]{factory: factory}
}

// Named sets the name used in log records.
func (w *Watch[T]) Named(name string) *Watch[T] {
	w.name = name
	return w
}

// Value returns the cached value, recomputing it if a dependency changed
// since it was computed. The Watch attaches itself to ctx's current function
// either way, so enclosing computations depend on it.
//
// Value panics with ErrReentrantWatch when called from its own factory with
// the factory's ctx or any context derived from it. Reentrancy is found by
// walking ctx's function frames, so a factory that calls Value with an
// unrelated context (context.Background, a stored context) is not detected
// and blocks on w's lock, just like a concurrent caller would.
func (w *Watch[T]) Value(ctx context.Context) T {
	if w.inFlight(ctx) {
		panic(ErrReentrantWatch)
	}

	watcher := WatcherFrom(ctx)
	activity := watcher.Activity()

	if s := w.state.Load(); s != nil && s.fn.isFresh(activity) {
		watcher.recorder.IncWatchCacheHit()
		s.fn.Replay(ctx, activity)
		AttachToParent(ctx, s.fn)
		return s.value
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if s := w.state.Load(); s != nil {
		start := time.Now()
		changed := s.fn.HasChanged(activity)
		watcher.recorder.ObserveChangeCheck(time.Since(start), changed)
		if !changed {
			watcher.recorder.IncWatchCacheHit()
			s.fn.Replay(ctx, activity)
			AttachToParent(ctx, s.fn)
			return s.value
		}
	}

	start := time.Now()
	fn := newWatchFunction(w, activity)
	fctx := BeginFunctionScope(ctx, fn)
	value := w.factory(fctx)
	EndFunctionScope(fctx, false)

	w.state.Store(&watchState[T]{value: value, fn: fn})
	AttachToParent(ctx, fn)

	watcher.recorder.IncWatchRecompute()
	watcher.logger.Debug("Watch recomputed",
		"watch", w.name,
		logfields.Activity(activity),
		logfields.Count(fn.len()),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return value
}

// inFlight reports whether ctx is inside a computation of w.
func (w *Watch[T]) inFlight(ctx context.Context) bool {
	for f := frameFrom(ctx); f != nil; f = f.parent {
		if wf, ok := f.fn.(*watchFunction); ok && wf.owner == any(w) {
			return true
		}
	}
	return false
}
