// Package agent defines the boundary to the browser automation engine. The
// orchestrator only ever sees this contract; the engine behind it owns page
// parsing, action planning and retries.
package agent

import (
	"context"
	"time"

	"go-browserpilot/pkg/llm"
)

// Step is one action-and-observation record emitted during a run.
type Step struct {
	Goal       string
	Action     string
	Evaluation string
	URL        string
	Screenshot []byte
	Timestamp  time.Time
}

// Outcome is the automator's own verdict once its step stream has closed.
type Outcome struct {
	FinalAnswer string
}

// Session is one live automation run. Steps closes when the run is over,
// after which Outcome reports how it ended. Cancel is a best-effort stop; a
// step already in flight may still be emitted before the stream closes.
type Session interface {
	Steps() <-chan Step
	Outcome() (Outcome, error)
	Cancel()
}

// Automator drives a browser against a natural-language instruction, asking
// the model client for each decision.
type Automator interface {
	Start(ctx context.Context, instruction string, client llm.Client) (Session, error)
}
