// Package run hosts the actor that owns the UI-facing view of one task
// execution. All snapshot mutation happens on the actor's mailbox: the
// orchestrator's event stream is forwarded to the actor as messages, and the
// HTTP layer reads through request futures.
package run

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go-browserpilot/internal/agent"
	"go-browserpilot/internal/orchestrator"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/logger"
	"go-browserpilot/pkg/messages"
	"go-browserpilot/pkg/models"
	"go-browserpilot/pkg/trace"
)

// StatusView is what the HTTP layer renders for a status poll.
type StatusView struct {
	ID      string                `json:"id"`
	Status  models.Status         `json:"status"`
	Steps   []trace.Record        `json:"steps"`
	Error   *models.Error         `json:"error,omitempty"`
	Summary *models.ResultSummary `json:"summary,omitempty"`
}

// ArtifactView carries the rendered animation, or why there is none yet.
type ArtifactView struct {
	Data      []byte
	RenderErr string
	Terminal  bool
}

type Actor struct {
	id         uuid.UUID
	orch       *orchestrator.Orchestrator
	frameDelay time.Duration

	run       *orchestrator.Run
	snapshot  models.RunState
	summary   *models.ResultSummary
	artifact  []byte
	renderErr error
}

// NewProducer builds run actors sharing an automator and policy. Each actor
// gets its own orchestrator, so separate runs never share state.
func NewProducer(automator agent.Automator, resolve orchestrator.Resolver, policy orchestrator.Policy, frameDelay time.Duration) actor.Producer {
	if resolve == nil {
		resolve = llm.Resolve
	}
	return func() actor.Actor {
		return &Actor{
			orch:       orchestrator.New(automator, resolve, policy),
			frameDelay: frameDelay,
			snapshot:   models.RunState{Status: models.Pending},
		}
	}
}

func (a *Actor) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.RunIDField: a.id.String()}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.StartRun:
		a.id = msg.RunID
		r, err := a.orch.Start(context.Background(), msg.Request)
		if err != nil {
			if r == nil {
				l.Error().Err(err).Msg("run rejected")
				return
			}
			// terminal before the first step, keep the failed state around
			a.snapshot = r.Snapshot()
			s := r.Summary()
			a.summary = &s
			l.Error().Err(err).Msg("run failed before the first step")
			return
		}
		a.run = r
		a.snapshot = r.Snapshot()
		l.Info().Str(logger.ProviderField, string(msg.Request.Provider)).Msg("run started")

		self := ac.Self()
		root := ac.ActorSystem().Root
		go func() {
			for ev := range r.Events() {
				root.Send(self, messages.StepObserved{Event: ev})
			}
			root.Send(self, messages.RunFinished{Summary: r.Summary()})
		}()
	case messages.StepObserved:
		l.Debug().Int(logger.StepField, msg.Event.Sequence).Msg("step observed")
		a.snapshot.Status = models.Running
		a.snapshot.Steps = append(a.snapshot.Steps, msg.Event)
	case messages.RunFinished:
		a.snapshot = a.run.Snapshot()
		s := msg.Summary
		a.summary = &s
		l.Info().Str("status", string(s.Status)).Int("steps", s.Steps).Msg("run finished")
		a.renderArtifact(l)
	case messages.GetStatus:
		l.Debug().Msg("GetStatus message received from user")
		ac.Respond(a.statusView())
	case messages.GetArtifact:
		l.Debug().Msg("GetArtifact message received from user")
		view := ArtifactView{Data: a.artifact, Terminal: a.snapshot.Status.Terminal()}
		if a.renderErr != nil {
			view.RenderErr = a.renderErr.Error()
		}
		ac.Respond(view)
	case messages.CancelRun:
		l.Info().Msg("cancel requested")
		if a.run != nil {
			a.run.Cancel()
		}
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}

// renderArtifact builds the animation exactly once, after the run is
// terminal. A failed or aborted run with at least one frame still gets a
// partial artifact; a render failure is kept separately and never changes
// the run status.
func (a *Actor) renderArtifact(l zerolog.Logger) {
	if len(a.snapshot.Steps) == 0 {
		return
	}
	gif, err := trace.Render(a.snapshot.Steps, a.frameDelay)
	if err != nil {
		a.renderErr = err
		l.Error().Err(err).Msg("artifact render failed")
		return
	}
	a.artifact = gif
}

func (a *Actor) statusView() StatusView {
	return StatusView{
		ID:      a.id.String(),
		Status:  a.snapshot.Status,
		Steps:   trace.RenderLog(a.snapshot.Steps),
		Error:   a.snapshot.Error,
		Summary: a.summary,
	}
}
