// Package executor implements the single-consumer task execution engine.
//
// Arbitrary producer goroutines (HTTP handlers, console input, timers) hand
// work off to one coordinating goroutine through Schedule. The consumer
// goroutine drains the queue in batches inside Await and isolates per-task
// failures, so a misbehaving task can never take the loop down.
package executor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Origin is the failure origin reported for tasks that fail inside the
// consumer loop.
const Origin = "<executor>"

// Task is a zero-argument, potentially-failing unit of work. The executor
// owns a task from enqueue until it has been run; it is discarded afterwards
// regardless of outcome.
type Task func() error

// FailureReporter receives failures from tasks executed by the consumer loop.
type FailureReporter interface {
	ReportFailure(origin string, err error)
}

// Executor serializes cross-goroutine work onto a single consumer goroutine.
//
// The queue is unbounded and provides no back-pressure; a producer that
// outruns the consumer grows the queue without limit. Tasks execute in global
// FIFO order at the time of each batch snapshot. Cancellation is cooperative
// at batch granularity: once a batch has been dequeued it always runs to
// completion, even if Stop fires mid-batch. A stalled task blocks the
// consumer indefinitely; there is no per-task timeout.
type Executor struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []Task
	alive    atomic.Bool
	reporter FailureReporter
}

// New creates an Executor in the alive state. The reporter may be nil, in
// which case task failures are silently dropped.
func New(reporter FailureReporter) *Executor {
	e := &Executor{reporter: reporter}
	e.cond = sync.NewCond(&e.mu)
	e.alive.Store(true)
	return e
}

// Schedule enqueues a task and wakes the consumer. It never blocks the
// caller and is safe to call from any goroutine, including tasks already
// running on the consumer. Tasks scheduled after Stop are still executed by
// the final drain pass as long as Await has not returned.
func (e *Executor) Schedule(task Task) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	e.cond.Broadcast()
}

// Await runs the consumer loop on the calling goroutine and blocks until the
// executor is stopped. Exactly one goroutine may call Await.
//
// While alive the loop parks on the empty-queue condition, then atomically
// snapshots and clears the queue under the lock and executes the snapshot
// outside it, so producers are never blocked by task execution. A task
// failure is reported with origin "<executor>" and never terminates the loop.
//
// After Stop flips liveness, one final snapshot pass drains tasks that were
// enqueued concurrently with the stop, then onExit runs exactly once outside
// the lock.
func (e *Executor) Await(onExit func()) {
	for e.alive.Load() {
		e.mu.Lock()
		for len(e.tasks) == 0 && e.alive.Load() {
			e.cond.Wait()
		}
		batch := e.tasks
		e.tasks = nil
		e.mu.Unlock()

		e.execute(batch)
	}

	// Final drain so work scheduled concurrently with Stop is not dropped.
	e.mu.Lock()
	batch := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	e.execute(batch)

	if onExit != nil {
		onExit()
	}
}

// Stop flips liveness to false and wakes a blocked consumer. The transition
// is one-way; a stopped executor cannot be restarted. Safe to call
// concurrently with Schedule and safe to call more than once.
func (e *Executor) Stop() {
	e.mu.Lock()
	e.alive.Store(false)
	e.mu.Unlock()
	e.cond.Broadcast()
}

// IsAlive reports whether the consumer loop should keep running. The read is
// lock-free.
func (e *Executor) IsAlive() bool {
	return e.alive.Load()
}

// Pending returns the number of tasks waiting in the queue.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// execute runs a drained batch to completion, isolating each task.
func (e *Executor) execute(batch []Task) {
	for _, task := range batch {
		e.runTask(task)
	}
}

// runTask invokes a single task, converting panics into reported failures.
func (e *Executor) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			e.report(fmt.Errorf("task panicked: %v", r))
		}
	}()

	if err := task(); err != nil {
		e.report(err)
	}
}

func (e *Executor) report(err error) {
	if e.reporter != nil {
		e.reporter.ReportFailure(Origin, err)
	}
}
