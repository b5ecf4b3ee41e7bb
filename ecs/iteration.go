package ecs

// Iteration describes the current pass of a World's main loop.
type Iteration struct {
	// Index is a monotonically increasing counter starting at 0.
	Index uint64

	// Time is the number of seconds elapsed since the loop started.
	Time float64

	// DT is the number of seconds elapsed since the previous iteration.
	// It is 0 on the first iteration.
	DT float64
}
