// Package incremental memoizes computations and recomputes them only when
// something they read has changed.
//
// A computation records what it reads while it runs. Every Read, ReadValue,
// Write and nested Watch attaches a node to the function currently on top of
// the context's scope stack, so the dependency graph is discovered from the
// call structure without explicit wiring:
//
//	w := incremental.NewWatch(func(ctx context.Context) *Config {
//	    data := incremental.Read(ctx,
//	        func() []byte { return mustRead(path) },
//	        func() time.Time { return modTime(path) })
//	    return parse(data)
//	})
//
//	cfg := w.Value(ctx)   // computes
//	cfg = w.Value(ctx)    // cached
//	watcher.StartActivity()
//	cfg = w.Value(ctx)    // recomputes only if modTime(path) moved
//
// Change checks are memoized per activity. A Watcher's activity is a
// generation counter that callers advance once per "look for changes" pass,
// for example once per batch of file system events.
//
// Ambient state travels in context.Context: WithWatcher selects the activity
// source, BeginFunctionScope and EndFunctionScope push and pop the scope
// stack, and WithScope selects the instance Scoped values are bound to.
package incremental
