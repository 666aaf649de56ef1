// Package sched runs a task on a fixed interval with overlap prevention
// and graceful drain.
//
// # State machine
//
//	Idle -> Running -> Idle        normal completion
//	Idle|Running -> Draining -> Stopped   termination signal or unrecoverable fault
//
// All transitions happen in the single Run goroutine; the state is
// published atomically only so callers can observe it. At most one task
// invocation executes at a time by construction: a tick that arrives while
// an invocation is in flight is skipped and logged, never queued.
package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State of the scheduler lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Task is one serialized unit of work. A returned error is logged and the
// scheduler stays up, except ErrUnrecoverable, which routes through the
// draining path.
type Task func(ctx context.Context) error

// ErrUnrecoverable marks a task failure that must stop the scheduler.
// Wrap it with fmt.Errorf("...: %w", ErrUnrecoverable) to trigger drain.
var ErrUnrecoverable = errors.New("unrecoverable fault")

// Scheduler drives a Task periodically.
type Scheduler struct {
	name         string
	interval     time.Duration
	drainTimeout time.Duration
	task         Task

	state        atomic.Int32
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// New creates a scheduler. The task runs once immediately when Run
// starts, then on every interval tick.
func New(name string, interval, drainTimeout time.Duration, task Task) *Scheduler {
	return &Scheduler{
		name:         name,
		interval:     interval,
		drainTimeout: drainTimeout,
		task:         task,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
}

// Shutdown requests a graceful drain. Idempotent and safe from any
// goroutine: signals, faults and tests all converge on this one routine,
// so drain logic runs at most once.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

// Done is closed once the scheduler has reached Stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Run executes the schedule loop until ctx is cancelled or Shutdown is
// called, then drains. Must be called from exactly one goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting", "scheduler", s.name, "interval", s.interval)

	results := make(chan error, 1)
	inFlight := s.launch(ctx, results)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-results:
			inFlight = false
			s.setState(StateIdle)
			if err != nil {
				if errors.Is(err, ErrUnrecoverable) {
					slog.Error("unrecoverable fault, draining", "scheduler", s.name, "error", err)
					return s.drain(false, false, results)
				}
				slog.Error("invocation failed", "scheduler", s.name, "error", err)
			}

		case <-ticker.C:
			if inFlight {
				slog.Warn("tick skipped: invocation still running", "scheduler", s.name)
				continue
			}
			inFlight = s.launch(ctx, results)

		case <-ctx.Done():
			return s.drain(inFlight, true, results)

		case <-s.shutdown:
			return s.drain(inFlight, true, results)
		}
	}
}

// launch starts one task invocation in a worker goroutine.
func (s *Scheduler) launch(ctx context.Context, results chan<- error) bool {
	s.setState(StateRunning)
	go func() {
		results <- s.task(ctx)
	}()
	return true
}

// drain performs the Draining -> Stopped transition.
//
// An in-flight invocation is waited for up to the drain timeout, then
// abandoned; its atomic persist either completed or left the previous
// file intact. When idle after a termination signal, one last synchronous
// invocation runs with a bounded deadline.
func (s *Scheduler) drain(inFlight, finalRun bool, results <-chan error) error {
	s.setState(StateDraining)
	slog.Info("scheduler draining", "scheduler", s.name, "in_flight", inFlight)
	defer func() {
		s.setState(StateStopped)
		slog.Info("scheduler stopped", "scheduler", s.name)
		close(s.done)
	}()

	if inFlight {
		select {
		case err := <-results:
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("invocation failed during drain", "scheduler", s.name, "error", err)
			}
		case <-time.After(s.drainTimeout):
			slog.Warn("drain timeout, abandoning in-flight invocation", "scheduler", s.name)
		}
		return nil
	}

	if finalRun {
		// The parent context is already cancelled; the last invocation
		// gets its own bounded deadline.
		ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
		defer cancel()
		if err := s.task(ctx); err != nil {
			slog.Error("final invocation failed", "scheduler", s.name, "error", err)
		}
	}
	return nil
}
