package incremental

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the child count above which change checks fan out.
const parallelThreshold = 10

// Function is a node of the dependency graph.
type Function interface {
	// HasChanged reports whether the node's observed inputs differ from when
	// it was recorded. The answer is memoized per activity.
	HasChanged(activity int64) bool

	// Replay re-runs recorded side effects of a node served from cache.
	Replay(ctx context.Context, activity int64)

	// AddChild records child as a dependency.
	AddChild(child Function)
}

var errChanged = errors.New("changed")

// containerFunction aggregates children; it has changed when any child has.
// The same lock guards appends and the iterate-and-check path.
type containerFunction struct {
	mu       sync.Mutex
	children []Function
	checked  int64
	changed  bool
}

func newContainerFunction(activity int64) *containerFunction {
	return &containerFunction{checked: activity}
}

// NewContainerFunction returns an empty composite node fresh at activity.
// Use it with BeginFunctionScope to group the dependencies of a computation
// that is not a Watch.
func NewContainerFunction(activity int64) Function {
	return newContainerFunction(activity)
}

func (c *containerFunction) AddChild(child Function) {
	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()
}

func (c *containerFunction) HasChanged(activity int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checked == activity {
		return c.changed
	}
	c.changed = anyChanged(c.children, activity)
	c.checked = activity
	return c.changed
}

func (c *containerFunction) Replay(ctx context.Context, activity int64) {
	c.mu.Lock()
	children := append([]Function(nil), c.children...)
	c.mu.Unlock()
	for _, child := range children {
		child.Replay(ctx, activity)
	}
}

func (c *containerFunction) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.children)
}

// anyChanged short-circuits on the first changed child. Large fan-outs are
// checked concurrently and stop scheduling once one child reports a change.
func anyChanged(children []Function, activity int64) bool {
	if len(children) <= parallelThreshold {
		for _, child := range children {
			if child.HasChanged(activity) {
				return true
			}
		}
		return false
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, child := range children {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if child.HasChanged(activity) {
				return errChanged
			}
			return nil
		})
	}
	return errors.Is(g.Wait(), errChanged)
}

// watchFunction is the container recorded by one computation of a Watch.
// owner identifies the Watch for reentrancy detection.
type watchFunction struct {
	*containerFunction
	owner    any
	fresh    atomic.Int64
	replayed atomic.Int64
}

func newWatchFunction(owner any, activity int64) *watchFunction {
	fn := &watchFunction{containerFunction: newContainerFunction(activity), owner: owner}
	fn.fresh.Store(activity)
	fn.replayed.Store(activity)
	return fn
}

func (w *watchFunction) HasChanged(activity int64) bool {
	changed := w.containerFunction.HasChanged(activity)
	if !changed {
		w.fresh.Store(activity)
	}
	return changed
}

// isFresh reports whether the node is known unchanged at activity without
// taking its lock.
func (w *watchFunction) isFresh(activity int64) bool {
	return w.fresh.Load() == activity
}

// Replay runs at most once per activity, so reading the same Watch several
// times in one pass does not repeat its side effects.
func (w *watchFunction) Replay(ctx context.Context, activity int64) {
	for {
		last := w.replayed.Load()
		if last == activity {
			return
		}
		if w.replayed.CompareAndSwap(last, activity) {
			break
		}
	}
	w.containerFunction.Replay(ctx, activity)
}

// readFunction is a leaf comparing a change token with the one observed when
// the read happened. ReadValue uses the value itself as the token.
type readFunction[K comparable] struct {
	token    func() K
	observed K

	mu      sync.Mutex
	checked int64
	changed bool
}

func newReadFunction[K comparable](token func() K, observed K, activity int64) *readFunction[K] {
	return &readFunction[K]{token: token, observed: observed, checked: activity}
}

func (r *readFunction[K]) HasChanged(activity int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.checked != activity {
		r.changed = r.token() != r.observed
		r.checked = activity
	}
	return r.changed
}

func (r *readFunction[K]) Replay(context.Context, int64) {}

func (r *readFunction[K]) AddChild(Function) {
	panic("incremental: read functions cannot have children")
}

// writeFunction replays a side effect and never reports a change.
type writeFunction struct {
	action func()
}

func (w *writeFunction) HasChanged(int64) bool { return false }

func (w *writeFunction) Replay(context.Context, int64) { w.action() }

func (w *writeFunction) AddChild(Function) {
	panic("incremental: write functions cannot have children")
}
