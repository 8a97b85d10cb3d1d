package core

import (
	"context"
	"sync"
)

// Readiness is a single-shot completion signal. It moves from pending to
// ready exactly once; observers registered while pending run in
// registration order on resolve, later observers run immediately.
type Readiness[T any] struct {
	mu        sync.Mutex
	resolved  bool
	result    T
	observers []func(T)
	done      chan struct{}
}

func NewReadiness[T any]() *Readiness[T] {
	return &Readiness[T]{done: make(chan struct{})}
}

// Resolved returns a signal that is already ready with result.
func Resolved[T any](result T) *Readiness[T] {
	r := NewReadiness[T]()
	r.MustResolve(result)
	return r
}

// Resolve stores result and flushes queued observers. Resolving twice is a
// programming error and returns a POOL_READINESS_ALREADY_RESOLVED error.
func (r *Readiness[T]) Resolve(result T) error {
	r.mu.Lock()
	if r.resolved {
		r.mu.Unlock()
		return alreadyResolvedError()
	}
	r.resolved = true
	r.result = result
	observers := r.observers
	r.observers = nil
	close(r.doneLocked())
	r.mu.Unlock()

	for _, observer := range observers {
		observer(result)
	}
	return nil
}

func (r *Readiness[T]) MustResolve(result T) {
	if err := r.Resolve(result); err != nil {
		panic(err)
	}
}

func (r *Readiness[T]) OnReady(observer func(T)) {
	if observer == nil {
		return
	}
	r.mu.Lock()
	if !r.resolved {
		r.observers = append(r.observers, observer)
		r.mu.Unlock()
		return
	}
	result := r.result
	r.mu.Unlock()
	observer(result)
}

func (r *Readiness[T]) IsReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

func (r *Readiness[T]) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doneLocked()
}

func (r *Readiness[T]) doneLocked() chan struct{} {
	if r.done == nil {
		r.done = make(chan struct{})
	}
	return r.done
}

// Wait blocks until the signal resolves or ctx is done.
func (r *Readiness[T]) Wait(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-r.Done():
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.result, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
