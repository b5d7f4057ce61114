// Package agenttest provides an automator that replays a fixed script, for
// tests that need runs without a browser or a model behind them.
package agenttest

import (
	"context"
	"sync"

	"go-browserpilot/internal/agent"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/models"
)

// Scripted emits Script step by step, then reports Final and Err. When Hold
// is set, the session waits for it to close before the first step, which
// lets a test keep a run pinned in the running state.
type Scripted struct {
	Script []agent.Step
	Final  agent.Outcome
	Err    error
	Hold   chan struct{}
}

func (a *Scripted) Start(ctx context.Context, _ string, _ llm.Client) (agent.Session, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s := &session{steps: make(chan agent.Step), cancel: cancel}

	go func() {
		defer close(s.steps)
		if a.Hold != nil {
			select {
			case <-a.Hold:
			case <-runCtx.Done():
				s.set(agent.Outcome{}, runCtx.Err())
				return
			}
		}
		for _, st := range a.Script {
			select {
			case s.steps <- st:
			case <-runCtx.Done():
				s.set(agent.Outcome{}, runCtx.Err())
				return
			}
		}
		s.set(a.Final, a.Err)
	}()

	return s, nil
}

type session struct {
	steps  chan agent.Step
	cancel context.CancelFunc

	mu      sync.Mutex
	outcome agent.Outcome
	err     error
}

func (s *session) Steps() <-chan agent.Step { return s.steps }

func (s *session) Outcome() (agent.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.err
}

func (s *session) Cancel() { s.cancel() }

func (s *session) set(o agent.Outcome, err error) {
	s.mu.Lock()
	s.outcome = o
	s.err = err
	s.mu.Unlock()
}

// Client is a canned model client for automator-level tests.
type Client struct {
	Answer string
	From   models.Provider
}

func (c Client) Provider() models.Provider { return c.From }

func (c Client) Complete(context.Context, string) (string, error) {
	return c.Answer, nil
}
