package incremental

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (context.Context, *Watcher) {
	w := NewWatcher()
	return WithWatcher(context.Background(), w), w
}

func TestWatch_Memoization(t *testing.T) {
	ctx, watcher := newTestContext()

	var calls int
	external := 1
	w := NewWatch(func(ctx context.Context) int {
		calls++
		return ReadValue(ctx, func() int { return external })
	})

	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, calls)

	// Unchanged inputs across activities keep the cached value.
	watcher.StartActivity()
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, calls)

	external = 2
	// Without a new activity the previous check still stands.
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, calls)

	watcher.StartActivity()
	assert.Equal(t, 2, w.Value(ctx))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, w.Value(ctx))
	assert.Equal(t, 2, calls)
}

func TestWatch_ReadWithChangeToken(t *testing.T) {
	ctx, watcher := newTestContext()

	content := "v1"
	version := 1
	var calls int
	w := NewWatch(func(ctx context.Context) string {
		calls++
		return Read(ctx, func() string { return content }, func() int { return version })
	})

	assert.Equal(t, "v1", w.Value(ctx))

	// Content changes without a token change are invisible.
	content = "v2"
	watcher.StartActivity()
	assert.Equal(t, "v1", w.Value(ctx))
	assert.Equal(t, 1, calls)

	version = 2
	watcher.StartActivity()
	assert.Equal(t, "v2", w.Value(ctx))
	assert.Equal(t, 2, calls)
}

func TestWatch_ReentrancyPanics(t *testing.T) {
	ctx, _ := newTestContext()

	var w *Watch[int]
	w = NewWatch(func(ctx context.Context) int {
		return w.Value(ctx) + 1
	})

	assert.PanicsWithValue(t, ErrReentrantWatch, func() { w.Value(ctx) })

	// The lock is released after the panic; a sibling watch still works.
	other := NewWatch(func(context.Context) int { return 7 })
	assert.Equal(t, 7, other.Value(ctx))
}

func TestWatch_IndirectReentrancyPanics(t *testing.T) {
	ctx, _ := newTestContext()

	var a, b *Watch[int]
	a = NewWatch(func(ctx context.Context) int { return b.Value(ctx) })
	b = NewWatch(func(ctx context.Context) int { return a.Value(ctx) })

	assert.PanicsWithValue(t, ErrReentrantWatch, func() { a.Value(ctx) })
}

func TestWatch_ReentrancyThroughDerivedContextPanics(t *testing.T) {
	ctx, _ := newTestContext()

	type key struct{}
	var w *Watch[int]
	w = NewWatch(func(ctx context.Context) int {
		derived, cancel := context.WithTimeout(context.WithValue(ctx, key{}, "x"), time.Minute)
		defer cancel()
		return w.Value(derived)
	})

	assert.PanicsWithValue(t, ErrReentrantWatch, func() { w.Value(ctx) })
}

func TestWatch_NestedDependenciesPropagate(t *testing.T) {
	ctx, watcher := newTestContext()

	leafInput := "a"
	var innerCalls, outerCalls int
	inner := NewWatch(func(ctx context.Context) string {
		innerCalls++
		return ReadValue(ctx, func() string { return leafInput })
	})
	outer := NewWatch(func(ctx context.Context) string {
		outerCalls++
		return "<" + inner.Value(ctx) + ">"
	})

	assert.Equal(t, "<a>", outer.Value(ctx))
	watcher.StartActivity()
	assert.Equal(t, "<a>", outer.Value(ctx))
	assert.Equal(t, 1, innerCalls)
	assert.Equal(t, 1, outerCalls)

	leafInput = "b"
	watcher.StartActivity()
	assert.Equal(t, "<b>", outer.Value(ctx))
	assert.Equal(t, 2, innerCalls)
	assert.Equal(t, 2, outerCalls)
}

func TestWatch_SharedDependencyRecomputedOnce(t *testing.T) {
	ctx, watcher := newTestContext()

	input := 1
	var sharedCalls int
	shared := NewWatch(func(ctx context.Context) int {
		sharedCalls++
		return ReadValue(ctx, func() int { return input })
	})
	left := NewWatch(func(ctx context.Context) int { return shared.Value(ctx) * 10 })
	right := NewWatch(func(ctx context.Context) int { return shared.Value(ctx) * 100 })

	assert.Equal(t, 10, left.Value(ctx))
	assert.Equal(t, 100, right.Value(ctx))
	assert.Equal(t, 1, sharedCalls)

	input = 2
	watcher.StartActivity()
	assert.Equal(t, 20, left.Value(ctx))
	assert.Equal(t, 200, right.Value(ctx))
	assert.Equal(t, 2, sharedCalls)
}

func TestWatch_DependenciesReplacedOnRecompute(t *testing.T) {
	ctx, watcher := newTestContext()

	useA := true
	a, b := "a1", "b1"
	var calls int
	w := NewWatch(func(ctx context.Context) string {
		calls++
		if ReadValue(ctx, func() bool { return useA }) {
			return ReadValue(ctx, func() string { return a })
		}
		return ReadValue(ctx, func() string { return b })
	})

	assert.Equal(t, "a1", w.Value(ctx))
	useA = false
	watcher.StartActivity()
	assert.Equal(t, "b1", w.Value(ctx))
	assert.Equal(t, 2, calls)

	// a is no longer a dependency.
	a = "a2"
	watcher.StartActivity()
	assert.Equal(t, "b1", w.Value(ctx))
	assert.Equal(t, 2, calls)
}

func TestWatch_WriteReplayedFromCache(t *testing.T) {
	ctx, watcher := newTestContext()

	var log []string
	w := NewWatch(func(ctx context.Context) int {
		Write(ctx, func() { log = append(log, "warned") })
		return 1
	})

	w.Value(ctx)
	w.Value(ctx)
	assert.Equal(t, []string{"warned"}, log, "no replay within the computing activity")

	watcher.StartActivity()
	w.Value(ctx)
	w.Value(ctx)
	assert.Equal(t, []string{"warned", "warned"}, log, "one replay per activity")
}

func TestWatch_ConcurrentValueComputesOnce(t *testing.T) {
	ctx, _ := newTestContext()

	var calls atomic.Int32
	w := NewWatch(func(context.Context) int {
		calls.Add(1)
		return 42
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 42, w.Value(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatch_AttachesToEnclosingScope(t *testing.T) {
	ctx, watcher := newTestContext()

	input := 1
	w := NewWatch(func(ctx context.Context) int {
		return ReadValue(ctx, func() int { return input })
	})

	root := NewContainerFunction(watcher.Activity())
	scoped := BeginFunctionScope(ctx, root)
	w.Value(scoped)
	require.Same(t, root, EndFunctionScope(scoped, false))

	watcher.StartActivity()
	assert.False(t, root.HasChanged(watcher.Activity()))

	input = 2
	watcher.StartActivity()
	assert.True(t, root.HasChanged(watcher.Activity()))
}

func TestWatch_UsesDefaultWatcherWithoutContext(t *testing.T) {
	var calls int
	w := NewWatch(func(context.Context) int {
		calls++
		return calls
	}).Named("default")

	ctx := context.Background()
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, 1, w.Value(ctx))
	assert.Equal(t, ActivityID(ctx), Default().Activity())
}
