// Package worker provides a single-goroutine FIFO job executor.
//
// A Worker owns one goroutine and a FIFO queue of jobs. Jobs are executed
// in enqueue order, one at a time, with the queue lock released while a
// job runs. Worker is usable standalone: it does not depend on anything
// in package ecs. A job that panics is not recovered here — callers that
// drive a Worker directly are responsible for installing their own
// recovery inside the job closure. The scheduler in package ecs does this
// for every job it enqueues.
package worker

import (
	"sync"

	"github.com/google/uuid"
)

// Job is a unit of work executed on a Worker's goroutine. A returned
// error is recorded as the worker's last error, which Wait returns.
type Job func() error

// Worker runs enqueued jobs in order on a single dedicated goroutine.
type Worker struct {
	// ID is the worker's position in the allocation order for the run
	// that created it (what appears in schedule logs as "worker #N").
	ID uint64

	uuid uuid.UUID

	mu         sync.Mutex
	jobAdded   *sync.Cond
	queueEmpty *sync.Cond
	jobs       []Job
	running    bool
	stopping   bool
	lastErr    error
	drainDone  sync.WaitGroup
}

// New spawns a worker goroutine and returns a handle to it.
func New(id uint64) *Worker {
	w := &Worker{
		ID:   id,
		uuid: uuid.New(),
	}
	w.jobAdded = sync.NewCond(&w.mu)
	w.queueEmpty = sync.NewCond(&w.mu)
	w.drainDone.Add(1)
	go w.loop()
	return w
}

// UUID returns a stable identifier for this worker instance, useful for
// correlating worker identity across process-external tracing systems
// where the small integer ID may be reused between runs.
func (w *Worker) UUID() uuid.UUID {
	return w.uuid
}

// Enqueue appends a job to the FIFO queue. It never blocks on execution.
func (w *Worker) Enqueue(job Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopping {
		return
	}
	w.jobs = append(w.jobs, job)
	w.jobAdded.Signal()
}

// Wait blocks until the queue is empty and no job is running, and
// returns the error (if any) of the most recently completed job. Errors
// of earlier jobs in the same drain are not returned, and if the worker
// was already idle the result is that of the last job it ever ran.
func (w *Worker) Wait() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.jobs) > 0 || w.running {
		w.queueEmpty.Wait()
	}
	return w.lastErr
}

// Close signals the worker to stop after draining its queue, and blocks
// until the goroutine has exited.
func (w *Worker) Close() {
	w.mu.Lock()
	w.stopping = true
	w.jobAdded.Signal()
	w.mu.Unlock()
	w.drainDone.Wait()
}

func (w *Worker) loop() {
	defer w.drainDone.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		for len(w.jobs) == 0 {
			if w.stopping {
				return
			}
			w.jobAdded.Wait()
		}

		job := w.jobs[0]
		w.jobs = w.jobs[1:]
		w.running = true
		w.mu.Unlock()

		err := job()

		w.mu.Lock()
		w.lastErr = err
		w.running = false
		if len(w.jobs) == 0 {
			w.queueEmpty.Broadcast()
		}

		if w.stopping && len(w.jobs) == 0 {
			return
		}
	}
}
