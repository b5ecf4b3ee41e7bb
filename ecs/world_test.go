package ecs_test

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/tef/ecs"
	"github.com/nmxmxh/tef/ecs/logging"
)

func newTestWorld(t *testing.T) *ecs.World {
	t.Helper()
	logger, err := logging.NewStreamLogger(&bytes.Buffer{})
	require.NoError(t, err)
	w, err := ecs.NewWorld("test", logging.Verbose, logger)
	require.NoError(t, err)
	return w
}

// counterSystem increments a shared counter on every update.
type counterSystem struct {
	ecs.BaseSystem
	count  atomic.Int64
	starts atomic.Int64
	stops  atomic.Int64
}

func newCounterSystem(name string, priority int32) *counterSystem {
	s := &counterSystem{}
	s.SystemName = name
	s.SystemPriority = priority
	return s
}

func (s *counterSystem) OnStart(world *ecs.World) error {
	s.starts.Add(1)
	return nil
}

func (s *counterSystem) OnUpdate(world *ecs.World, iter ecs.Iteration) error {
	s.count.Add(1)
	return nil
}

func (s *counterSystem) OnStop(world *ecs.World, iter ecs.Iteration) error {
	s.stops.Add(1)
	return nil
}

func TestRun_CounterSystem_StartsUpdatesStopsOnce(t *testing.T) {
	w := newTestWorld(t)
	s := newCounterSystem("counter", 0)
	w.AddSystem(s)

	err := w.Run(context.Background(), 100, 0.1)
	require.NoError(t, err)

	assert.InDelta(t, 10, s.count.Load(), 3)
	assert.EqualValues(t, 1, s.starts.Load())
	assert.EqualValues(t, 1, s.stops.Load())
}

// threadRecordingSystem counts its updates and logs a message on each
// one, exercising World.Log (and its thread-label lookup) from whichever
// goroutine runs the update. Its threads map is not populated.
type threadRecordingSystem struct {
	ecs.BaseSystem
	mu      sync.Mutex
	threads map[string]struct{}
	updates int
}

func newThreadRecordingSystem(name string, priority int32) *threadRecordingSystem {
	s := &threadRecordingSystem{threads: make(map[string]struct{})}
	s.SystemName = name
	s.SystemPriority = priority
	return s
}

func (s *threadRecordingSystem) OnUpdate(world *ecs.World, iter ecs.Iteration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	// The world logs with the current goroutine's scheduler-assigned
	// label; the test logger's output is not inspected.
	world.Log(logging.Verbose, "tick")
	return nil
}

func TestRun_SamePriorityGroup_EqualUpdateCounts(t *testing.T) {
	w := newTestWorld(t)

	a := newThreadRecordingSystem("a", 0)
	b := newThreadRecordingSystem("b", 0)
	c := newThreadRecordingSystem("c", 0)
	w.AddSystem(a)
	w.AddSystem(b)
	w.AddSystem(c)

	err := w.Run(context.Background(), 0, 0.05)
	require.NoError(t, err)

	assert.Greater(t, a.updates, 0)
	assert.InDelta(t, a.updates, b.updates, 1)
	assert.InDelta(t, a.updates, c.updates, 1)
}

// sameThreadSystem records the logical thread label on each update and
// fails the test if more than one distinct label is observed, verifying
// the per-system worker-pinning invariant.
type sameThreadSystem struct {
	ecs.BaseSystem
	mu     sync.Mutex
	labels map[string]struct{}
}

func newSameThreadSystem(name string, priority int32) *sameThreadSystem {
	s := &sameThreadSystem{labels: make(map[string]struct{})}
	s.SystemName = name
	s.SystemPriority = priority
	return s
}

func (s *sameThreadSystem) OnUpdate(world *ecs.World, iter ecs.Iteration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[goroutineStackHeader()] = struct{}{}
	return nil
}

// goroutineStackHeader returns the first 64 bytes of the calling
// goroutine's stack trace, which begin with its "goroutine N" header and
// so are unique per goroutine for the lifetime of this test; this lets
// tests verify the worker-pinning invariant without
// reaching into package ecs's unexported thread-label machinery.
func goroutineStackHeader() string {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func TestRun_SystemObservesSingleThreadIdentity(t *testing.T) {
	w := newTestWorld(t)

	a := newSameThreadSystem("a", 0)
	bSys := newCounterSystem("b", 0)
	w.AddSystem(a)
	w.AddSystem(bSys)

	err := w.Run(context.Background(), 0, 0.05)
	require.NoError(t, err)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Len(t, a.labels, 1)
}

// eventKind used by the trigger scenario below.
const eventKindPing ecs.EventKind = 7

type emitterSystem struct {
	ecs.BaseSystem
	emitted bool
}

func newEmitterSystem(name string, priority int32) *emitterSystem {
	s := &emitterSystem{}
	s.SystemName = name
	s.SystemPriority = priority
	return s
}

func (s *emitterSystem) OnUpdate(world *ecs.World, iter ecs.Iteration) error {
	if iter.Index == 0 && !s.emitted {
		s.emitted = true
		world.EnqueueEvent(ecs.Event{Kind: eventKindPing})
	}
	return nil
}

type triggerRecordingSystem struct {
	ecs.BaseSystem
	mu          sync.Mutex
	triggeredAt []uint64
}

func newTriggerRecordingSystem(name string, priority int32) *triggerRecordingSystem {
	s := &triggerRecordingSystem{}
	s.SystemName = name
	s.SystemPriority = priority
	s.TriggerSet = map[ecs.EventKind]struct{}{eventKindPing: {}}
	return s
}

func (s *triggerRecordingSystem) OnTrigger(world *ecs.World, iter ecs.Iteration, event ecs.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggeredAt = append(s.triggeredAt, iter.Index)
	return nil
}

func TestRun_EventTriggeredNextIteration(t *testing.T) {
	w := newTestWorld(t)

	emitter := newEmitterSystem("emitter", 0)
	receiver := newTriggerRecordingSystem("receiver", 0)
	w.AddSystem(emitter)
	w.AddSystem(receiver)

	err := w.Run(context.Background(), 50, 0.2)
	require.NoError(t, err)

	receiver.mu.Lock()
	defer receiver.mu.Unlock()
	require.Len(t, receiver.triggeredAt, 1)
	assert.EqualValues(t, 1, receiver.triggeredAt[0])
}

func TestStop_ReleasesRunMutexAfterReturn(t *testing.T) {
	w := newTestWorld(t)
	s := newCounterSystem("s", 0)
	w.AddSystem(s)

	done := make(chan struct{})
	go func() {
		_ = w.Run(context.Background(), 0, 0)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	w.Stop(true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop(true)")
	}

	// A second Run must be able to acquire the mutex immediately.
	err := w.Run(context.Background(), 0, 0.01)
	require.NoError(t, err)
}

func TestRun_Pacing_MeanIntervalRespectsMaxRate(t *testing.T) {
	w := newTestWorld(t)
	s := newCounterSystem("s", 0)
	w.AddSystem(s)

	start := time.Now()
	err := w.Run(context.Background(), 20, 0.5)
	require.NoError(t, err)
	elapsed := time.Since(start)

	n := s.count.Load()
	require.Greater(t, n, int64(9))
	meanInterval := elapsed.Seconds() / float64(n)
	assert.GreaterOrEqual(t, meanInterval, (1.0/20.0)*0.5)
}

func TestRun_OnStartFailure_SkipsLoopAndStillStops(t *testing.T) {
	w := newTestWorld(t)

	failing := &failingStartSystem{}
	failing.SystemName = "failing"
	w.AddSystem(failing)

	err := w.Run(context.Background(), 0, 0.05)
	require.NoError(t, err)
	assert.True(t, failing.stopped)
	assert.Error(t, w.Err())
}

type failingStartSystem struct {
	ecs.BaseSystem
	stopped bool
}

func (s *failingStartSystem) OnStart(world *ecs.World) error {
	return assertErr
}

func (s *failingStartSystem) OnStop(world *ecs.World, iter ecs.Iteration) error {
	s.stopped = true
	return nil
}

var assertErr = errTest("forced start failure")

type errTest string

func (e errTest) Error() string { return string(e) }

// TestRun_OnStartFailure_StillAttemptsEveryStart verifies that a failing
// system does not abandon the rest of the start phase: every other
// system in the world must still have OnStart attempted on it.
func TestRun_OnStartFailure_StillAttemptsEveryStart(t *testing.T) {
	w := newTestWorld(t)

	failing := &failingStartSystem{}
	failing.SystemName = "failing"
	later := newCounterSystem("later", 0)

	w.AddSystem(failing)
	w.AddSystem(later)

	err := w.Run(context.Background(), 0, 0.05)
	require.NoError(t, err)

	assert.EqualValues(t, 1, later.starts.Load())
	assert.True(t, failing.stopped)
	assert.EqualValues(t, 1, later.stops.Load())
	assert.Error(t, w.Err())
}
