package serial

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/vellum/internal/events"
	"github.com/mattjoyce/vellum/internal/log"
)

const (
	// DefaultMaxQueueSize bounds the number of waiting tasks.
	DefaultMaxQueueSize = 100

	// DefaultWarnThreshold is the queue length above which a warning event
	// is published on every enqueue.
	DefaultWarnThreshold = 10

	// DefaultWatchdogTimeout bounds how long a single task may stay in
	// flight before it is force-completed as timed out.
	DefaultWatchdogTimeout = 30 * time.Second
)

// ErrQueueFull is returned when admission is refused at capacity. The task's
// work is never attempted; a task.rejected event is published as well.
var ErrQueueFull = errors.New("task queue is full")

var errNilFuture = errors.New("task returned a nil future")

// Options configures a Serialiser. Zero values fall back to the defaults
// above, so tests can shorten the watchdog without touching anything else.
type Options struct {
	MaxQueueSize    int
	WarnThreshold   int
	WatchdogTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = DefaultMaxQueueSize
	}
	if o.WarnThreshold <= 0 {
		o.WarnThreshold = DefaultWarnThreshold
	}
	if o.WatchdogTimeout <= 0 {
		o.WatchdogTimeout = DefaultWatchdogTimeout
	}
	return o
}

// TaskEvent is the payload for task.started, task.timed_out and
// task.rejected events.
type TaskEvent struct {
	Task string `json:"task"`
}

// CompletionEvent is the payload for task.completed events.
type CompletionEvent struct {
	Task    string `json:"task"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LengthEvent is the payload for queue.length and queue.warning events.
type LengthEvent struct {
	Length int `json:"length"`
}

type queuedTask struct {
	name string
	work func() *Future
}

// Serialiser is the single-flight dispatcher. All state mutations go through
// one mutex so the busy check-and-set is race-free under re-entrant advance
// calls (a completing task and a fresh enqueue racing into the dispatcher).
type Serialiser struct {
	opts   Options
	hub    *events.Hub
	logger *slog.Logger

	mu      sync.Mutex
	pending []queuedTask
	busy    bool
	current string
	// gen identifies the in-flight task instance. The watchdog timer and
	// the future completion callback are both keyed to it, so a stale
	// timer or a late resolution can never settle a later task.
	gen uint64
	wd  watchdog
}

// New creates a Serialiser publishing lifecycle events on hub.
func New(hub *events.Hub, opts Options) *Serialiser {
	if hub == nil {
		hub = events.NewHub(128)
	}
	return &Serialiser{
		opts:   opts.withDefaults(),
		hub:    hub,
		logger: log.WithComponent("serial"),
	}
}

// Hub returns the events hub lifecycle events are published on.
func (s *Serialiser) Hub() *events.Hub {
	return s.hub
}

// Enqueue admits a named task to the queue tail, or rejects it if the queue
// is at capacity. Admission is fire-and-forget: the outcome is delivered via
// events, not to the caller. Re-entrant enqueues from within a running task
// always go to the tail; they never execute inline.
func (s *Serialiser) Enqueue(name string, work func() *Future) error {
	s.mu.Lock()
	if len(s.pending) >= s.opts.MaxQueueSize {
		s.hub.Publish(events.TaskRejected, TaskEvent{Task: name})
		s.mu.Unlock()
		s.logger.Warn("queue full, rejecting task", "task", name, "max_queue_size", s.opts.MaxQueueSize)
		return ErrQueueFull
	}
	s.pending = append(s.pending, queuedTask{name: name, work: work})
	n := len(s.pending)
	s.hub.Publish(events.QueueLength, LengthEvent{Length: n})
	if n > s.opts.WarnThreshold {
		s.hub.Publish(events.QueueWarning, LengthEvent{Length: n})
		s.logger.Warn("queue length warning", "length", n, "threshold", s.opts.WarnThreshold)
	}
	s.mu.Unlock()

	s.logger.Debug("enqueued task", "task", name, "queue_length", n)

	// Advance on a fresh goroutine: enqueueing never runs work on the
	// caller's stack, and an enqueue from inside a task body cannot
	// deadlock on the in-flight slot.
	go s.advance()
	return nil
}

// Len returns the number of waiting tasks. The in-flight task is not counted.
func (s *Serialiser) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Busy reports whether a task is currently in flight, and its name.
func (s *Serialiser) Busy() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.busy
}

// Clear empties the queue and abandons the in-flight task, if any: its
// watchdog is disarmed and its eventual resolution will be discarded. The
// serialiser is immediately ready to accept new tasks. Clearing an idle,
// empty serialiser is a no-op.
func (s *Serialiser) Clear() {
	s.mu.Lock()
	dropped := len(s.pending)
	hadInFlight := s.busy
	s.pending = nil
	s.wd.disarm()
	s.busy = false
	s.current = ""
	s.gen++
	s.hub.Publish(events.QueueLength, LengthEvent{Length: 0})
	s.mu.Unlock()

	if dropped > 0 || hadInFlight {
		s.logger.Info("queue cleared", "dropped", dropped, "had_in_flight", hadInFlight)
	}
}

// advance drains the queue one task at a time. It is an explicit loop rather
// than a recursive self-call so long queues of fast tasks cannot grow the
// stack. The loop exits either when the queue is empty, when another advance
// owns the in-flight slot, or after handing continuation over to a pending
// future's completion callback.
func (s *Serialiser) advance() {
	for {
		s.mu.Lock()
		if s.busy || len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.busy = true
		s.current = next.name
		s.gen++
		gen := s.gen
		s.hub.Publish(events.QueueLength, LengthEvent{Length: len(s.pending)})
		s.hub.Publish(events.TaskStarted, TaskEvent{Task: next.name})
		s.wd.arm(s.opts.WatchdogTimeout, func() { s.onWatchdogTimeout(gen) })
		s.mu.Unlock()

		s.logger.Debug("starting task", "task", next.name)

		fut, err := invokeWork(next.work)
		if err == nil && fut == nil {
			err = errNilFuture
		}
		if err != nil {
			// Synchronous failure before any suspension: settle here
			// and keep draining so one bad task never stalls the queue.
			s.logger.Warn("task failed synchronously", "task", next.name, "error", err)
			if !s.settle(gen, Failed(err)) {
				return
			}
			continue
		}

		// Already-settled futures are consumed inline so a run of
		// immediate tasks stays in this loop instead of recursing
		// through OnDone.
		select {
		case <-fut.Done():
			out, _ := fut.Outcome()
			if !s.settle(gen, out) {
				return
			}
			continue
		default:
		}

		fut.OnDone(func(out Outcome) {
			if s.settle(gen, out) {
				s.advance()
			}
		})
		return
	}
}

// settle records the terminal outcome for the task identified by gen.
// Returns false if that task is no longer current (watchdog already fired,
// Clear ran, or a duplicate resolution arrived) — in which case the caller
// must not advance; whoever superseded the task owns the queue.
func (s *Serialiser) settle(gen uint64, out Outcome) bool {
	s.mu.Lock()
	if !s.busy || gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding late task resolution", "status", out.Status)
		return false
	}
	s.wd.disarm()
	name := s.current
	s.busy = false
	s.current = ""

	comp := CompletionEvent{Task: name, Success: out.Status == StatusSucceeded}
	if out.Err != nil {
		comp.Error = out.Err.Error()
	}
	if out.Status == StatusTimedOut {
		s.hub.Publish(events.TaskTimedOut, TaskEvent{Task: name})
	}
	s.hub.Publish(events.TaskCompleted, comp)
	s.mu.Unlock()

	s.logger.Debug("task completed", "task", name, "status", out.Status)
	return true
}

// onWatchdogTimeout force-completes the in-flight task identified by gen.
// The underlying operation may still be running; its eventual resolution is
// discarded by the gen check in settle.
func (s *Serialiser) onWatchdogTimeout(gen uint64) {
	s.mu.Lock()
	stale := !s.busy || gen != s.gen
	name := s.current
	s.mu.Unlock()
	if stale {
		return
	}

	s.logger.Warn("watchdog timeout", "task", name, "timeout", s.opts.WatchdogTimeout)
	if s.settle(gen, Outcome{Status: StatusTimedOut, Err: fmt.Errorf("watchdog timeout after %v", s.opts.WatchdogTimeout)}) {
		s.advance()
	}
}

// invokeWork calls work, converting a panic into an error.
func invokeWork(work func() *Future) (fut *Future, err error) {
	defer func() {
		if r := recover(); r != nil {
			fut = nil
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return work(), nil
}
