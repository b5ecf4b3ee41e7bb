package ecs

import "sync/atomic"

// atomicBool is a tiny wrapper over atomic.Bool for the stop flag shared
// between Run's loop and any goroutine calling Stop.
type atomicBool struct {
	v atomic.Bool
}

func (b *atomicBool) Store(value bool) { b.v.Store(value) }
func (b *atomicBool) Load() bool       { return b.v.Load() }
