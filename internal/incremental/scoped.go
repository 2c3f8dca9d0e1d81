package incremental

import (
	"context"
	"runtime"
	"sync"
	"weak"

	"github.com/google/uuid"
)

// Scope identifies one logical unit of work, such as a build. Values held in
// a Scoped are released once their Scope is unreachable.
type Scope struct {
	id string
}

// NewScope creates a scope with a random id.
func NewScope() *Scope {
	return &Scope{id: uuid.NewString()}
}

// ID returns the scope's id.
func (s *Scope) ID() string { return s.id }

// rootScope lives for the whole process. It may be allocated statically, so
// it is never handed to weak.Make or runtime.AddCleanup.
var rootScope = &Scope{id: "root"}

type scopeKey struct{}

// WithScope returns a context whose Scoped values are bound to scope.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope carried by ctx, or the process-wide root scope.
func ScopeFrom(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok && s != nil {
		return s
	}
	return rootScope
}

// Scoped lazily creates one T per Scope. Scopes are held weakly: a value must
// not reference its own Scope or it will never be released. The root scope's
// value is held strongly.
type Scoped[T any] struct {
	factory func() T

	rootOnce sync.Once
	root     T

	mu     sync.Mutex
	values map[weak.Pointer[Scope]]T
}

// NewScoped creates a Scoped whose values are built by factory.
func NewScoped[T any](factory func() T) *Scoped[T] {
	return &Scoped[T]{factory: factory, values: make(map[weak.Pointer[Scope]]T)}
}

// Value returns the instance for ctx's scope.
func (s *Scoped[T]) Value(ctx context.Context) T {
	return s.Get(ScopeFrom(ctx))
}

// Get returns the instance for scope, creating it on first use.
func (s *Scoped[T]) Get(scope *Scope) T {
	if scope == nil || scope == rootScope {
		s.rootOnce.Do(func() { s.root = s.factory() })
		return s.root
	}
	key := weak.Make(scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	v := s.factory()
	s.values[key] = v
	runtime.AddCleanup(scope, s.release, key)
	return v
}

// Len returns the number of live instances bound to scopes other than the
// root scope.
func (s *Scoped[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *Scoped[T]) release(key weak.Pointer[Scope]) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}
