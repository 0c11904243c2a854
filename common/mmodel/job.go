package mmodel

// JobKind distinguishes what a JobMessage or orchestrated job concerns.
type JobKind string

const (
	JobKindTrain  JobKind = "train"
	JobKindDeploy JobKind = "deploy"
)

// JobLevel is the severity of a JobMessage line.
type JobLevel string

const (
	JobLevelWarning JobLevel = "warning"
	JobLevelError   JobLevel = "error"
)

// jobTransitions enumerates the only legal TrainState transitions the
// orchestrator will apply, keyed by the state a job is currently in. A
// transition to a state not in this set is rejected as ErrInvalidJobTransition.
var jobTransitions = map[TrainState][]TrainState{
	StateNotStarted: {StateStarting, StateFailed},
	StateStarting:   {StateInProgress, StateComplete, StateFailed, StateStopped},
	StateInProgress: {StateComplete, StateFailed, StateStopped},
	StateComplete:   {StateStopped},
	StateFailed:     {},
	StateStopped:    {},
}

// IsValidJobTransition reports whether moving from to is a legal step in the
// job state machine shared by Model.TrainState and Deployment.State.
func IsValidJobTransition(from, to TrainState) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether a TrainState admits no further transitions.
func IsTerminal(s TrainState) bool {
	return len(jobTransitions[s]) == 0
}

// IsDuplicateJobCallback reports whether a callback reporting state to
// arrives on a row already settled at that exact terminal outcome (complete,
// failed or stopped). At-least-once
// callback delivery means the runner may repeat a terminal report; the
// orchestrator treats a repeat as an idempotent no-op rather than an invalid
// transition.
func IsDuplicateJobCallback(current, to TrainState) bool {
	return current == to && (current == StateComplete || current == StateFailed || current == StateStopped)
}
