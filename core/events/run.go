package events

import "time"

// RunPhase marks the lifecycle point of a RunEvent.
type RunPhase string

const (
	RunStarted  RunPhase = "started"
	RunFinished RunPhase = "finished"
)

// RunEvent is published when a simulation run starts and when it ends.
// Err is set when the run aborted.
type RunEvent struct {
	RunID    string
	Phase    RunPhase
	Steps    int
	Duration time.Duration
	Err      error
}
