// Package ecs provides a world runtime: a scheduler that owns a
// collection of systems, drives them through a start/update/trigger/stop
// lifecycle, parallelizes same-priority systems across a pool of
// single-goroutine workers, and routes events from producers to
// subscribing systems.
package ecs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nmxmxh/tef/ecs/logging"
	"github.com/nmxmxh/tef/ecs/worker"
)

// World owns a collection of systems and an event queue, and drives the
// main loop when Run is called. At most one Run is active at a time.
type World struct {
	name        string
	maxLogLevel logging.Level
	logger      logging.Logger
	metrics     *metricsCollector

	// SystemsMu is not used internally. It is exposed for application
	// code that mutates the system list from several goroutines and
	// needs to coordinate with itself.
	SystemsMu sync.Mutex

	systemsMu sync.Mutex // guards systems, append/remove only
	systems   []System

	eventsMu sync.Mutex
	events   []Event

	runMu      sync.Mutex
	shouldStop atomicBool

	threads threadRegistry

	errMu   sync.Mutex
	lastErr error
}

// NewWorld creates a world with the given name, log level filter, and
// logger. logger must not be nil.
func NewWorld(name string, maxLogLevel logging.Level, logger logging.Logger, opts ...Option) (*World, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	w := &World{
		name:        name,
		maxLogLevel: maxLogLevel,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.Log(logging.Info, "world created")
	return w, nil
}

// Log emits a log record if level is at or below the world's configured
// maximum log level. The thread field is derived from the calling
// goroutine's scheduler-assigned label, if any.
func (w *World) Log(level logging.Level, message string) {
	if level > w.maxLogLevel {
		return
	}
	_ = w.logger.Log(logging.Record{
		Level:   level,
		World:   w.name,
		Thread:  w.threads.current(),
		Message: message,
		Time:    time.Now(),
	})
}

func (w *World) logf(level logging.Level, format string, args ...any) {
	if level > w.maxLogLevel {
		return
	}
	w.Log(level, fmt.Sprintf(format, args...))
}

// EnqueueEvent appends event to the queue. Safe to call from any
// goroutine, including from inside a system callback — events enqueued
// during dispatch are deferred to the next iteration's drain.
func (w *World) EnqueueEvent(event Event) {
	w.Log(logging.Verbose, fmt.Sprintf("enqueueing event of kind %d", event.Kind))

	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()
	w.events = append(w.events, event)
}

// GetSystemNamed returns the first system in the list with the given
// name, or nil if none matches.
func (w *World) GetSystemNamed(name string) System {
	w.systemsMu.Lock()
	defer w.systemsMu.Unlock()
	for _, s := range w.systems {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// AddSystem appends a system to the world.
func (w *World) AddSystem(system System) {
	w.Log(logging.Verbose, fmt.Sprintf("adding system named %q", system.Name()))

	w.systemsMu.Lock()
	defer w.systemsMu.Unlock()
	w.systems = append(w.systems, system)
}

// RemoveSystemNamed removes the first system with the given name.
func (w *World) RemoveSystemNamed(name string) {
	w.Log(logging.Verbose, fmt.Sprintf("removing first system named %q", name))

	w.systemsMu.Lock()
	defer w.systemsMu.Unlock()
	for i, s := range w.systems {
		if s.Name() == name {
			w.systems = append(w.systems[:i], w.systems[i+1:]...)
			return
		}
	}
}

// RemoveSystemsNamed removes every system with the given name.
func (w *World) RemoveSystemsNamed(name string) {
	w.Log(logging.Verbose, fmt.Sprintf("removing all systems named %q", name))

	w.systemsMu.Lock()
	defer w.systemsMu.Unlock()
	kept := w.systems[:0]
	for _, s := range w.systems {
		if s.Name() != name {
			kept = append(kept, s)
		}
	}
	w.systems = kept
}

// RemoveSystems removes every system in the world.
func (w *World) RemoveSystems() {
	w.Log(logging.Verbose, "removing all systems")

	w.systemsMu.Lock()
	defer w.systemsMu.Unlock()
	w.systems = nil
}

// Err returns the aggregated errors from the most recently completed Run
// (start-phase failures, loop iterations whose event dispatch or update
// did not complete, and stop-phase failures), or nil if none occurred. Run itself always
// returns nil on a cooperative stop — this is the only way to observe
// per-system failures besides the logger.
func (w *World) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

// systemGroup is every system sharing a priority value, updated
// concurrently with respect to one another.
type systemGroup struct {
	priority int32
	systems  []System
}

type workerMap map[System]*worker.Worker

// Stop signals the running loop to stop at the next iteration boundary.
// If wait is true, it blocks until the current Run call returns. Stop(true)
// must not be called from the goroutine that called Run.
func (w *World) Stop(wait bool) {
	w.logf(logging.Info, "signaling the world to stop running (wait = %v)", wait)

	w.shouldStop.Store(true)
	if wait {
		w.runMu.Lock()
		w.runMu.Unlock() //nolint:staticcheck // intentional: block until the runner releases it
	}
}

// Run drives the main loop: it starts every registered system, repeatedly
// dispatches events and updates systems until stopped, then stops every
// system in reverse registration order. Run returns nil once the loop
// has fully stopped, regardless of whether systems failed internally —
// see World.Err and the logger for failure detail. maxRate of 0 disables
// pacing; maxRunTime of 0 disables the soft deadline.
func (w *World) Run(ctx context.Context, maxRate, maxRunTime float64) error {
	w.logf(logging.Info, "preparing to run (max_rate = %.3f iterations/s, max_run_time = %.3f s)", maxRate, maxRunTime)

	// If a run is already in flight, ask it to stop and wait for the slot.
	w.shouldStop.Store(true)
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.shouldStop.Store(false)

	w.threads.label("runner")

	w.systemsMu.Lock()
	snapshot := append([]System(nil), w.systems...)
	w.systemsMu.Unlock()

	groups, workers := w.prepareScheduleAndWorkers(snapshot)
	defer func() {
		for _, wk := range workers {
			wk.Close()
		}
	}()

	startErr := w.startSystems(snapshot, workers)

	var stopErrs error
	iter := Iteration{}

	if startErr == nil {
		iter, stopErrs = w.loop(ctx, snapshot, groups, workers, maxRate, maxRunTime)
	} else {
		stopErrs = multierr.Append(stopErrs, fmt.Errorf("start phase: %w", startErr))
	}

	stopPhaseErr := w.stopSystems(snapshot, workers, iter)
	stopErrs = multierr.Append(stopErrs, stopPhaseErr)

	w.errMu.Lock()
	w.lastErr = stopErrs
	w.errMu.Unlock()

	w.Log(logging.Info, "stopped running")
	return nil
}

func (w *World) prepareScheduleAndWorkers(snapshot []System) ([]systemGroup, workerMap) {
	w.Log(logging.Info, "preparing system groups and workers")

	priorities := make([]int32, 0)
	seen := map[int32]bool{}
	for _, s := range snapshot {
		if !seen[s.Priority()] {
			seen[s.Priority()] = true
			priorities = append(priorities, s.Priority())
		}
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	groups := make([]systemGroup, 0, len(priorities))
	workers := make(workerMap)
	var nextWorkerID uint64

	for _, p := range priorities {
		group := systemGroup{priority: p}
		for _, s := range snapshot {
			if s.Priority() == p {
				group.systems = append(group.systems, s)
			}
		}

		switch {
		case len(group.systems) == 1:
			workers[group.systems[0]] = nil
		case len(group.systems) > 1:
			for _, s := range group.systems {
				if s.WorldThreadOnly() {
					workers[s] = nil
					continue
				}
				nextWorkerID++
				wk := worker.New(nextWorkerID)
				workers[s] = wk
			}
		}

		groups = append(groups, group)
	}

	return groups, workers
}

// runOnSystem invokes fn for system, either on its assigned worker
// (waiting for completion) or inline, recovering any panic raised by fn.
func (w *World) runOnSystem(system System, wk *worker.Worker, fn func() error) error {
	job := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("system %q panicked: %v", system.Name(), r)
			}
		}()
		return fn()
	}

	if wk == nil {
		w.threads.label("runner")
		return job()
	}

	wk.Enqueue(func() error {
		w.threads.label(fmt.Sprintf("worker-%d", wk.ID))
		return job()
	})
	return wk.Wait()
}

// startSystems attempts OnStart on every system in snapshot, even after
// an earlier system fails, and aggregates every failure into the
// returned error.
func (w *World) startSystems(snapshot []System, workers workerMap) error {
	var errs error
	for _, s := range snapshot {
		wk := workers[s]
		if wk != nil {
			w.logf(logging.Info, "starting system named %q on worker #%d", s.Name(), wk.ID)
		} else {
			w.logf(logging.Info, "starting system named %q on the world runner goroutine", s.Name())
		}

		if err := w.runOnSystem(s, wk, func() error { return s.OnStart(w) }); err != nil {
			w.logf(logging.Error, "system %q failed to start: %v", s.Name(), err)
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", s.Name(), err))
		}
	}
	return errs
}

func (w *World) stopSystems(snapshot []System, workers workerMap, iter Iteration) error {
	var errs error
	for i := len(snapshot) - 1; i >= 0; i-- {
		s := snapshot[i]
		wk := workers[s]
		if wk != nil {
			w.logf(logging.Info, "stopping system named %q on worker #%d", s.Name(), wk.ID)
		} else {
			w.logf(logging.Info, "stopping system named %q on the world runner goroutine", s.Name())
		}

		if err := w.runOnSystem(s, wk, func() error { return s.OnStop(w, iter) }); err != nil {
			w.logf(logging.Error, "system %q failed to stop: %v", s.Name(), err)
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", s.Name(), err))
		}
	}
	return errs
}

func (w *World) loop(
	ctx context.Context,
	snapshot []System,
	groups []systemGroup,
	workers workerMap,
	maxRate, maxRunTime float64,
) (Iteration, error) {
	w.Log(logging.Info, "starting the loop")

	limit := rate.Inf
	if maxRate > 0 {
		limit = rate.Limit(maxRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var errs error
	iter := Iteration{}
	runStart := time.Now()
	lastIterStart := runStart

	for {
		w.logf(logging.Verbose, "loop iteration %d (elapsed = %.3f s, dt = %.3f s)", iter.Index, iter.Time, iter.DT)

		iterStart := time.Now()

		processedAllEvents := w.processEvents(snapshot, workers, iter)
		if !processedAllEvents {
			errs = multierr.Append(errs, fmt.Errorf("iteration %d: event dispatch did not complete", iter.Index))
		}

		updatedAll := w.updateSystems(groups, workers, iter)
		if !updatedAll {
			errs = multierr.Append(errs, fmt.Errorf("iteration %d: system update did not complete", iter.Index))
		}

		if w.metrics != nil {
			w.metrics.iterationDuration.Observe(time.Since(iterStart).Seconds())
		}

		if err := limiter.Wait(ctx); err != nil {
			// Context was cancelled while waiting out the pacing delay.
			w.shouldStop.Store(true)
		}

		iter.Index++
		iter.Time = time.Since(runStart).Seconds()
		iter.DT = time.Since(lastIterStart).Seconds()
		lastIterStart = time.Now()

		stop := w.shouldStop.Load() ||
			!processedAllEvents ||
			!updatedAll ||
			ctx.Err() != nil ||
			(maxRunTime != 0 && iter.Time > maxRunTime)

		if stop {
			if maxRunTime != 0 && iter.Time > maxRunTime {
				w.Log(logging.Info, "breaking the loop because the maximum run time was exceeded")
			}
			break
		}
	}

	return iter, errs
}

// processEvents drains the events that were queued when it was called,
// dispatching each event to every subscribing system in snapshot order.
// Events enqueued during dispatch stay queued for the next call. It
// dispatches every drained event to every subscriber, returning false if
// any OnTrigger call failed along the way.
func (w *World) processEvents(snapshot []System, workers workerMap, iter Iteration) bool {
	processedAll := true

	w.eventsMu.Lock()
	remaining := len(w.events)
	w.eventsMu.Unlock()

	for ; remaining > 0; remaining-- {
		w.eventsMu.Lock()
		event := w.events[0]
		w.events = w.events[1:]
		w.eventsMu.Unlock()

		for _, s := range snapshot {
			triggers := s.Triggers()
			if triggers == nil {
				continue
			}
			if _, ok := triggers[event.Kind]; !ok {
				continue
			}

			wk := workers[s]
			if wk != nil {
				w.logf(logging.Verbose, "using event of kind %d to trigger system %q on worker #%d", event.Kind, s.Name(), wk.ID)
			} else {
				w.logf(logging.Verbose, "using event of kind %d to trigger system %q on the world runner goroutine", event.Kind, s.Name())
			}

			if w.metrics != nil {
				w.metrics.triggeredEvents.WithLabelValues(strconv.FormatUint(uint64(event.Kind), 10)).Inc()
			}

			if err := w.runOnSystem(s, wk, func() error { return s.OnTrigger(w, iter, event) }); err != nil {
				w.logf(logging.Error, "system %q failed to handle trigger: %v", s.Name(), err)
				processedAll = false
			}
		}
	}
	return processedAll
}

// updateSystems runs OnUpdate for every system, grouped and ordered by
// priority. Every group always runs to completion — including waiting on
// every worker it dispatched to — and every later group still runs even
// if an earlier one had a failure; the return value aggregates whether
// any system's OnUpdate failed anywhere in the pass.
func (w *World) updateSystems(groups []systemGroup, workers workerMap, iter Iteration) bool {
	updatedAll := true

	for _, group := range groups {
		w.logf(logging.Verbose, "updating %d system(s) at priority %d", len(group.systems), group.priority)

		groupWaitStart := time.Now()
		g := new(errgroup.Group)

		for _, s := range group.systems {
			s := s
			wk := workers[s]
			if wk == nil {
				continue
			}
			wk.Enqueue(func() error {
				w.threads.label(fmt.Sprintf("worker-%d", wk.ID))
				return w.wrapPanic(s, func() error { return s.OnUpdate(w, iter) })
			})
		}

		for _, s := range group.systems {
			if workers[s] != nil {
				continue
			}
			w.threads.label("runner")
			if err := w.wrapPanic(s, func() error { return s.OnUpdate(w, iter) }); err != nil {
				w.logf(logging.Error, "system %q failed to update: %v", s.Name(), err)
				updatedAll = false
			}
		}

		seen := map[*worker.Worker]bool{}
		for _, s := range group.systems {
			wk := workers[s]
			if wk == nil || seen[wk] {
				continue
			}
			seen[wk] = true
			wk := wk
			g.Go(wk.Wait)
		}

		if err := g.Wait(); err != nil {
			w.logf(logging.Error, "a system in priority group %d failed to update: %v", group.priority, err)
			updatedAll = false
		}

		if w.metrics != nil {
			w.metrics.groupUpdateWait.Set(time.Since(groupWaitStart).Seconds())
		}
	}

	return updatedAll
}

func (w *World) wrapPanic(system System, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("system %q panicked: %v", system.Name(), r)
		}
	}()
	return fn()
}
