package ecs

// EventKind tags the domain-defined type of an Event.
type EventKind uint64

// Event is enqueued by a producer and dispatched to subscribing systems.
// Payload ownership transfers to the queue on Enqueue, and to each
// subscribing system's OnTrigger on dispatch.
type Event struct {
	Kind    EventKind
	Payload any
}
