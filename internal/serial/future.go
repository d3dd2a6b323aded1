package serial

import (
	"fmt"
	"sync"
)

// Status is the terminal state of a task.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Outcome is the terminal result of a task.
type Outcome struct {
	Status Status
	Value  any
	Err    error
}

// Succeeded builds a successful outcome carrying value.
func Succeeded(value any) Outcome {
	return Outcome{Status: StatusSucceeded, Value: value}
}

// Failed builds a failed outcome carrying err.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Future is a one-shot completion handle for an in-progress asynchronous
// operation. The first call to Complete (or Resolve/Fail) wins; every later
// completion attempt is ignored. Completion callbacks fire exactly once.
type Future struct {
	mu        sync.Mutex
	completed bool
	outcome   Outcome
	done      chan struct{}
	callbacks []func(Outcome)
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve completes the future successfully with value.
func (f *Future) Resolve(value any) bool {
	return f.Complete(Succeeded(value))
}

// Fail completes the future with err.
func (f *Future) Fail(err error) bool {
	return f.Complete(Failed(err))
}

// Complete settles the future. Returns false if it was already settled.
func (f *Future) Complete(out Outcome) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.outcome = out
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// Callbacks run outside the lock: they are allowed to re-enter the
	// serialiser or inspect the future.
	for _, cb := range cbs {
		cb(out)
	}
	return true
}

// OnDone registers fn to be called exactly once with the terminal outcome.
// If the future is already settled, fn runs synchronously on the caller's
// goroutine.
func (f *Future) OnDone(fn func(Outcome)) {
	f.mu.Lock()
	if f.completed {
		out := f.outcome
		f.mu.Unlock()
		fn(out)
		return
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// Done returns a channel closed when the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Outcome returns the terminal outcome, and whether the future has settled.
func (f *Future) Outcome() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.completed
}

// Go runs fn on a new goroutine and returns a Future settled with its result.
// A panic inside fn settles the future as failed.
func Go(fn func() (any, error)) *Future {
	f := NewFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Fail(fmt.Errorf("task panicked: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			f.Fail(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}
