package incremental

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/metrics"
)

// ErrNoFunctionScope is the panic value of EndFunctionScope when the context
// has no function scope to end.
var ErrNoFunctionScope = errors.New("incremental: no function scope to end")

// Watcher owns the activity counter that change checks are memoized against.
type Watcher struct {
	activity atomic.Int64
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewWatcher creates a watcher at activity 0.
func NewWatcher() *Watcher {
	return &Watcher{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets a custom logger.
func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	w.logger = logger
	return w
}

// WithRecorder sets the metrics recorder used by watches evaluated under w.
func (w *Watcher) WithRecorder(recorder metrics.Recorder) *Watcher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	w.recorder = recorder
	return w
}

// StartActivity advances the generation and returns the new activity id.
// Cached change checks from earlier activities are no longer trusted. It is a
// coarse fence: call it between passes, not while a pass is evaluating.
func (w *Watcher) StartActivity() int64 {
	id := w.activity.Add(1)
	w.recorder.SetActivity(id)
	w.logger.Debug("Started activity", logfields.Activity(id))
	return id
}

// Activity returns the current activity id.
func (w *Watcher) Activity() int64 {
	return w.activity.Load()
}

var defaultWatcher = NewWatcher()

// Default returns the process-wide watcher used when a context carries none.
func Default() *Watcher { return defaultWatcher }

type watcherKey struct{}

// WithWatcher returns a context whose computations use w for activities.
func WithWatcher(ctx context.Context, w *Watcher) context.Context {
	return context.WithValue(ctx, watcherKey{}, w)
}

// WatcherFrom returns the watcher carried by ctx, or Default.
func WatcherFrom(ctx context.Context) *Watcher {
	if w, ok := ctx.Value(watcherKey{}).(*Watcher); ok && w != nil {
		return w
	}
	return defaultWatcher
}

// ActivityID returns the current activity of the watcher carried by ctx.
func ActivityID(ctx context.Context) int64 {
	return WatcherFrom(ctx).Activity()
}

// frame is one entry of the scope stack. Stacks are immutable linked lists so
// derived contexts can be handed to other goroutines safely.
type frame struct {
	fn     Function
	parent *frame
}

type frameKey struct{}

func frameFrom(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

// BeginFunctionScope returns a context whose current function is fn.
// Functions created under the returned context attach to fn.
func BeginFunctionScope(ctx context.Context, fn Function) context.Context {
	return context.WithValue(ctx, frameKey{}, &frame{fn: fn, parent: frameFrom(ctx)})
}

// EndFunctionScope ends the scope begun by BeginFunctionScope and returns
// its function. With attachToParent the function becomes a child of the
// enclosing scope's function, if any. Callers continue with the context they
// passed to BeginFunctionScope.
func EndFunctionScope(ctx context.Context, attachToParent bool) Function {
	f := frameFrom(ctx)
	if f == nil {
		panic(ErrNoFunctionScope)
	}
	if attachToParent && f.parent != nil {
		f.parent.fn.AddChild(f.fn)
	}
	return f.fn
}

// Current returns the function on top of ctx's scope stack, or nil.
func Current(ctx context.Context) Function {
	if f := frameFrom(ctx); f != nil {
		return f.fn
	}
	return nil
}

// AttachToParent makes fn a child of ctx's current function. Outside any
// scope it does nothing.
func AttachToParent(ctx context.Context, fn Function) {
	if parent := Current(ctx); parent != nil {
		parent.AddChild(fn)
	}
}

// Read returns value() and records a dependency that changes when token()
// stops being equal to the token observed now. The token is taken before the
// value so a change racing the read is seen on the next check.
func Read[T any, K comparable](ctx context.Context, value func() T, token func() K) T {
	activity := ActivityID(ctx)
	fn := newReadFunction(token, token(), activity)
	v := value()
	AttachToParent(ctx, fn)
	return v
}

// ReadValue returns value() and records a dependency that changes when a
// later call to value() returns something different.
func ReadValue[T comparable](ctx context.Context, value func() T) T {
	v := value()
	AttachToParent(ctx, newReadFunction(value, v, ActivityID(ctx)))
	return v
}

// Write runs action and records it for replay: when an enclosing Watch is
// served from cache, action runs again so its side effects are not lost.
func Write(ctx context.Context, action func()) {
	action()
	AttachToParent(ctx, &writeFunction{action: action})
}
