package ecs

// System is a named unit of behavior with a priority and lifecycle
// callbacks, invoked at appropriate times by the World that owns it.
type System interface {
	// Name identifies the system in logs and lookups. Names need not be
	// unique; lookups use first-match semantics.
	Name() string

	// Priority groups systems for update ordering. Systems with a lower
	// priority have OnUpdate invoked before systems with a higher one.
	// Systems sharing a priority are updated concurrently.
	Priority() int32

	// WorldThreadOnly forces every callback of this system to run on
	// the goroutine that called World.Run, instead of a dedicated
	// worker. Useful for systems bound to a single-threaded context.
	WorldThreadOnly() bool

	// Triggers is the set of event kinds that invoke OnTrigger.
	Triggers() map[EventKind]struct{}

	// OnStart is called once, in registration order, when the world
	// begins running.
	OnStart(world *World) error

	// OnUpdate is called once per loop iteration, after event dispatch,
	// grouped and ordered by Priority.
	OnUpdate(world *World, iter Iteration) error

	// OnTrigger is called once per matching event, in registration
	// order relative to other subscribing systems.
	OnTrigger(world *World, iter Iteration, event Event) error

	// OnStop is called once, in reverse registration order, when the
	// world stops running.
	OnStop(world *World, iter Iteration) error
}

// BaseSystem provides no-op defaults for every System lifecycle method
// and holds the System configuration fields. Concrete systems embed
// BaseSystem and override only the callbacks they need.
type BaseSystem struct {
	SystemName     string
	SystemPriority int32
	Affinity       bool
	TriggerSet     map[EventKind]struct{}
}

func (s *BaseSystem) Name() string          { return s.SystemName }
func (s *BaseSystem) Priority() int32       { return s.SystemPriority }
func (s *BaseSystem) WorldThreadOnly() bool { return s.Affinity }

func (s *BaseSystem) Triggers() map[EventKind]struct{} {
	return s.TriggerSet
}

func (s *BaseSystem) OnStart(world *World) error { return nil }

func (s *BaseSystem) OnUpdate(world *World, iter Iteration) error { return nil }

func (s *BaseSystem) OnTrigger(world *World, iter Iteration, event Event) error { return nil }

func (s *BaseSystem) OnStop(world *World, iter Iteration) error { return nil }
