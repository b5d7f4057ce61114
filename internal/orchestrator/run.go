package orchestrator

import (
	"sync"

	"go-browserpilot/pkg/models"
)

// Run is one task execution in flight. Events is unbuffered on purpose: the
// orchestrator waits for the consumer to take each step before it looks at
// the next one, so a slow UI naturally backpressures the run.
type Run struct {
	events chan models.StepEvent
	done   chan struct{}
	cancel func()

	mu    sync.Mutex
	state models.RunState
}

// Events yields the steps in order and closes exactly when the run is
// terminal.
func (r *Run) Events() <-chan models.StepEvent { return r.events }

// Summary blocks until the run is terminal, then derives the result view.
func (r *Run) Summary() models.ResultSummary {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Summary()
}

// Cancel requests a best-effort stop. It takes effect at the next step
// boundary and ends the run aborted.
func (r *Run) Cancel() { r.cancel() }

// Snapshot copies the current state; callers never see the live buffer.
func (r *Run) Snapshot() models.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}
