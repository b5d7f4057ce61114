// Package orchestrator drives one task execution to completion: it resolves
// the model client, consumes the automator's step stream, numbers and
// buffers every step, re-emits it to the caller, and enforces the run-level
// step and time budgets.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"go-browserpilot/internal/agent"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/logger"
	"go-browserpilot/pkg/models"
)

// Policy bounds a single run. Zero values mean unbounded.
type Policy struct {
	MaxSteps int
	Timeout  time.Duration
}

// Resolver matches llm.Resolve so tests can swap the provider wiring.
type Resolver func(ctx context.Context, provider models.Provider, creds models.Credentials) (llm.Client, error)

type Orchestrator struct {
	automator agent.Automator
	resolve   Resolver
	policy    Policy

	mu     sync.Mutex
	active bool
}

func New(automator agent.Automator, resolve Resolver, policy Policy) *Orchestrator {
	return &Orchestrator{automator: automator, resolve: resolve, policy: policy}
}

// Start begins one run. A second call while a run is active fails with a
// concurrent_run error and leaves the active run untouched. Validation and
// configuration failures return a run already terminal in FAILED, with the
// error also returned directly, so the caller can still render "no steps
// ran".
func (o *Orchestrator) Start(ctx context.Context, req models.TaskRequest) (*Run, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, models.NewError(models.KindConcurrentRun, "a run is already in progress")
	}
	o.active = true
	o.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		events: make(chan models.StepEvent),
		done:   make(chan struct{}),
		cancel: cancel,
		state:  models.RunState{Status: models.Pending, StartedAt: time.Now()},
	}

	fail := func(err *models.Error) (*Run, error) {
		r.mu.Lock()
		r.state.Status = models.Failed
		r.state.Error = err
		now := time.Now()
		r.state.EndedAt = &now
		r.mu.Unlock()
		close(r.events)
		close(r.done)
		cancel()
		o.release()
		log.Error().Err(err).Str(logger.ProviderField, string(req.Provider)).Msg("run failed before the first step")
		return r, err
	}

	if err := validate(req); err != nil {
		return fail(err)
	}

	client, err := o.resolve(runCtx, req.Provider, req.Credentials)
	if err != nil {
		var tagged *models.Error
		if !errors.As(err, &tagged) {
			tagged = models.WrapError(models.KindConfiguration, "resolve model client", err)
		}
		return fail(tagged)
	}

	session, err := o.automator.Start(runCtx, req.Instruction, client)
	if err != nil {
		return fail(models.WrapError(models.KindAdapterExecution, "start automation", err))
	}

	r.mu.Lock()
	r.state.Status = models.Running
	r.mu.Unlock()
	log.Info().Str(logger.ProviderField, string(req.Provider)).Msg("run started")

	go o.consume(runCtx, r, session)
	return r, nil
}

func (o *Orchestrator) consume(ctx context.Context, r *Run, session agent.Session) {
	defer o.release()
	defer close(r.done)
	defer close(r.events)

	started := time.Now()
	seq := 0
	for step := range session.Steps() {
		ev := models.StepEvent{
			Sequence:   seq,
			Goal:       step.Goal,
			Action:     step.Action,
			Evaluation: step.Evaluation,
			URL:        step.URL,
			Screenshot: step.Screenshot,
			Timestamp:  step.Timestamp,
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		seq++

		// sole mutator of the step buffer
		r.mu.Lock()
		r.state.Steps = append(r.state.Steps, ev)
		r.mu.Unlock()

		// the suspension point: block until the caller takes the event
		select {
		case r.events <- ev:
		case <-ctx.Done():
			session.Cancel()
			o.terminate(r, models.Aborted, canceledError())
			return
		}

		if err := o.breach(started, seq); err != nil {
			log.Warn().Int(logger.StepField, ev.Sequence).Err(err).Msg("policy limit reached, aborting")
			session.Cancel()
			o.terminate(r, models.Aborted, err)
			return
		}
		if ctx.Err() != nil {
			session.Cancel()
			o.terminate(r, models.Aborted, canceledError())
			return
		}
	}

	outcome, err := session.Outcome()
	switch {
	case ctx.Err() != nil:
		o.terminate(r, models.Aborted, canceledError())
	case err != nil:
		o.terminate(r, models.Failed, models.WrapError(models.KindAdapterExecution, "automation failed", err))
	default:
		r.mu.Lock()
		r.state.FinalAnswer = outcome.FinalAnswer
		r.mu.Unlock()
		o.terminate(r, models.Succeeded, nil)
	}
}

// breach checks the run budgets after a step has been consumed; limits are
// observed at step boundaries only, a step in flight is never interrupted.
func (o *Orchestrator) breach(started time.Time, steps int) *models.Error {
	if o.policy.MaxSteps > 0 && steps >= o.policy.MaxSteps {
		return models.NewError(models.KindPolicyLimit, fmt.Sprintf("step budget of %d exhausted", o.policy.MaxSteps))
	}
	if o.policy.Timeout > 0 && time.Since(started) > o.policy.Timeout {
		return models.NewError(models.KindPolicyLimit, fmt.Sprintf("time budget of %s exhausted", o.policy.Timeout))
	}
	return nil
}

func (o *Orchestrator) terminate(r *Run, status models.Status, err *models.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Status.Terminal() {
		return
	}
	r.state.Status = status
	r.state.Error = err
	now := time.Now()
	r.state.EndedAt = &now
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.active = false
	o.mu.Unlock()
}

func canceledError() *models.Error {
	return models.NewError(models.KindPolicyLimit, "run canceled")
}

func validate(req models.TaskRequest) *models.Error {
	if strings.TrimSpace(req.Instruction) == "" {
		return models.NewError(models.KindConfiguration, "instruction is empty")
	}
	switch req.Provider {
	case models.ProviderGemini, models.ProviderOpenAI:
		return nil
	default:
		return models.NewError(models.KindConfiguration, fmt.Sprintf("unknown provider: %q", req.Provider))
	}
}
