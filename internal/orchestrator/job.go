package orchestrator

import (
	"fmt"
	"time"

	"github.com/leaseguard/leaseguard-api/internal/utils"
)

// JobState is the lifecycle state of one analysis job.
type JobState string

const (
	StateCreated        JobState = "CREATED"
	StateRunning        JobState = "RUNNING"
	StateRequiresAction JobState = "REQUIRES_ACTION"
	StateCompleted      JobState = "COMPLETED"
	StateFailed         JobState = "FAILED"
	StateCancelled      JobState = "CANCELLED"
	StateExpired        JobState = "EXPIRED"
	StateTimedOut       JobState = "TIMED_OUT"
)

// Terminal reports whether s is final. No transition leaves a terminal state.
func (s JobState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateExpired, StateTimedOut:
		return true
	}
	return false
}

// Job tracks one analysis request for the lifetime of its run. Owned
// exclusively by the orchestrator; never shared across requests.
type Job struct {
	ID        string
	State     JobState
	CreatedAt time.Time
	Retries   int
}

func newJob() *Job {
	return &Job{
		ID:        utils.GenerateID(),
		State:     StateCreated,
		CreatedAt: time.Now(),
	}
}

// transition moves the job to the next state, panicking on an attempt to
// leave a terminal state. That is a programming error in the polling loop,
// not a condition to handle.
func (j *Job) transition(to JobState) {
	if j.State.Terminal() {
		panic(fmt.Sprintf("orchestrator: transition %s -> %s leaves a terminal state", j.State, to))
	}
	j.State = to
}
