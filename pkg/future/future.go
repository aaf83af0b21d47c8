// Package future provides a single assignment value that is resolved by a
// background goroutine.
package future

import (
	"context"
	"sync"
)

// Future holds a value that becomes available later. A future settles
// exactly once, either with a value or empty.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	ok    bool
}

func New[T any]() *Future[T] {
	return &Future[T]{
		done: make(chan struct{}),
	}
}

// Resolved returns a future that already holds v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Empty returns a future that already settled without a value.
func Empty[T any]() *Future[T] {
	f := New[T]()
	f.Settle()
	return f
}

// Resolve sets the value. It returns false if the future had already
// settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.complete(v, true)
}

// Settle completes the future without a value.
func (f *Future[T]) Settle() bool {
	var zero T
	return f.complete(zero, false)
}

func (f *Future[T]) complete(v T, ok bool) bool {
	completed := false
	f.once.Do(func() {
		f.value = v
		f.ok = ok
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the future to settle or for ctx to be done. ok is false
// when the future settled empty or ctx ended first.
func (f *Future[T]) Get(ctx context.Context) (v T, ok bool) {
	select {
	case <-f.done:
		return f.value, f.ok
	case <-ctx.Done():
		return v, false
	}
}

// Wait blocks until the future settles.
func (f *Future[T]) Wait() (T, bool) {
	<-f.done
	return f.value, f.ok
}
