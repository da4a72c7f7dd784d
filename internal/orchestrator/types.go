package orchestrator

import "time"

// State is the residency state of one model slot.
type State string

const (
	// StateCold: not resident, zero cost.
	StateCold State = "cold"
	// StateWarm: resident, idle or about to be used.
	StateWarm State = "warm"
	// StateHot: actively executing a task.
	StateHot State = "hot"
	// StateCooling: idle, unlocked, eligible for eviction.
	StateCooling State = "cooling"
)

// slot is the orchestrator's record of one named model. Lock state is
// folded into the record so a slot and its lock can never disagree.
type slot struct {
	name     string
	path     string
	state    State
	lastUsed time.Time
	pinned   bool
	locked   bool
	memoryMB int
}

// SlotHandle is returned by Request and identifies the admitted model.
// No model bytes are touched on admission; loading happens lazily in the
// worker on first generation.
type SlotHandle struct {
	Name string
	Path string
}
