// Package loader memoizes reads for the lifetime of a single request.
//
// Entries live in a map owned by one Loader, keyed by (operation, key) and bounded by a TTL.
// Concurrent loads of the same entry share one fetch through singleflight.
// Nothing is shared between requests.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value    interface{}
	storedAt time.Time
}

// Loader is a request-scoped read cache. A nil *Loader is valid and caches nothing.
type Loader struct {
	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Loader whose entries expire after ttl.
func New(ttl time.Duration) *Loader {
	return &Loader{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(op, key string) string {
	return fmt.Sprintf("%s:%s", op, key)
}

// Load returns the cached value for (op, key) or calls fetch.
// Only successful fetches are cached.
func (l *Loader) Load(ctx context.Context, op, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if l == nil {
		return fetch(ctx)
	}

	k := cacheKey(op, key)
	if v, ok := l.lookup(k); ok {
		return v, nil
	}

	v, err, _ := l.group.Do(k, func() (interface{}, error) {
		if v, ok := l.lookup(k); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.entries[k] = entry{value: v, storedAt: l.now()}
		l.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (l *Loader) lookup(k string) (interface{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[k]
	if !ok {
		return nil, false
	}
	if l.ttl > 0 && l.now().Sub(e.storedAt) >= l.ttl {
		delete(l.entries, k)
		return nil, false
	}
	return e.value, true
}

// Reset drops every entry. Called after each write.
func (l *Loader) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	for k := range l.entries {
		l.group.Forget(k)
	}
	l.entries = make(map[string]entry)
	l.mu.Unlock()
}

// Fetch is the typed form of Load.
func Fetch[T any](ctx context.Context, op, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := FromContext(ctx).Load(ctx, op, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate resets the Loader bound to ctx, if any.
func Invalidate(ctx context.Context) {
	FromContext(ctx).Reset()
}

type contextKey struct{}

// WithLoader returns a copy of ctx carrying l.
func WithLoader(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the Loader bound to ctx, or nil.
func FromContext(ctx context.Context) *Loader {
	l, _ := ctx.Value(contextKey{}).(*Loader)
	return l
}
