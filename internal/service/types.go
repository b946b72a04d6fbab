package service

import "time"

// State represents the lifecycle state of the generator.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is a read-only projection of the service state.
type Snapshot struct {
	State State
	Err   string
}

// GenerationRequest is one call to the generator.
type GenerationRequest struct {
	Prompt             string
	MaxNewTokens       int
	NumReturnSequences int
}

// GenerationResult carries the generated sequences in draw order.
type GenerationResult struct {
	ID        string
	Sequences []string
	Duration  time.Duration
}
