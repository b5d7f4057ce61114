// Package browser implements the automator boundary with a chromedp-driven
// Chrome session: observe the page, ask the model for one action, apply it,
// emit a step, repeat until the model says done.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"go-browserpilot/internal/agent"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/logger"
)

type Options struct {
	// ChromePath attaches to a specific Chrome binary, e.g. a personal
	// install; empty uses the default discovery.
	ChromePath string
	Headless   bool

	// MaxActions guards against a model that never answers done. This is
	// the automator's own ceiling, below whatever run policy applies.
	MaxActions int

	// PageTextLimit truncates the visible text fed into the prompt.
	PageTextLimit int

	// StepTimeout budgets a single browser operation, not the run.
	StepTimeout time.Duration
}

type Automator struct {
	opts Options
}

func New(opts Options) *Automator {
	if opts.MaxActions <= 0 {
		opts.MaxActions = 40
	}
	if opts.PageTextLimit <= 0 {
		opts.PageTextLimit = 4000
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 30 * time.Second
	}
	return &Automator{opts: opts}
}

func (a *Automator) Start(ctx context.Context, instruction string, client llm.Client) (agent.Session, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s := &session{steps: make(chan agent.Step), cancel: cancel}
	go s.run(runCtx, a.opts, instruction, client)
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

func (s *session) finish(o agent.Outcome, err error) {
	s.mu.Lock()
	s.outcome = o
	s.err = err
	s.mu.Unlock()
}

func (s *session) run(ctx context.Context, opts Options, instruction string, client llm.Client) {
	defer close(s.steps)

	l := log.With().Str(logger.ProviderField, string(client.Provider())).Logger()

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		s.finish(agent.Outcome{}, fmt.Errorf("start browser: %w", err))
		return
	}

	history := make([]actionRecord, 0, opts.MaxActions)
	for i := 0; i < opts.MaxActions; i++ {
		obs, err := observe(browserCtx, opts)
		if err != nil {
			s.finish(agent.Outcome{}, fmt.Errorf("observe page: %w", err))
			return
		}

		dec, err := decide(ctx, client, instruction, obs, history)
		if err != nil {
			s.finish(agent.Outcome{}, err)
			return
		}
		l.Info().Str("action", dec.Action).Str("goal", dec.Goal).Msg("executing next action")

		if dec.Action == actionDone {
			if !s.emit(ctx, step(dec, obs)) {
				s.finish(agent.Outcome{}, ctx.Err())
				return
			}
			s.finish(agent.Outcome{FinalAnswer: dec.Argument}, nil)
			return
		}

		result, err := apply(browserCtx, opts, dec)
		if err != nil {
			l.Warn().Err(err).Str("action", dec.Action).Msg("action failed, feeding the error back")
			result = "error: " + err.Error()
		}
		history = append(history, actionRecord{
			Goal:     dec.Goal,
			Action:   dec.Action,
			Argument: dec.Argument,
			Result:   result,
		})

		if !s.emit(ctx, step(dec, obs)) {
			s.finish(agent.Outcome{}, ctx.Err())
			return
		}
	}

	s.finish(agent.Outcome{}, fmt.Errorf("no answer after %d actions", opts.MaxActions))
}

func (s *session) emit(ctx context.Context, st agent.Step) bool {
	select {
	case s.steps <- st:
		return true
	case <-ctx.Done():
		return false
	}
}

func step(dec decision, obs observation) agent.Step {
	return agent.Step{
		Goal:       dec.Goal,
		Action:     describe(dec),
		Evaluation: dec.Evaluation,
		URL:        obs.URL,
		Screenshot: obs.Screenshot,
		Timestamp:  time.Now(),
	}
}

type observation struct {
	URL        string
	Title      string
	PageText   string
	Screenshot []byte
}

func observe(ctx context.Context, opts Options) (observation, error) {
	tctx, cancel := context.WithTimeout(ctx, opts.StepTimeout)
	defer cancel()

	var obs observation
	var text string
	err := chromedp.Run(tctx,
		chromedp.Location(&obs.URL),
		chromedp.Title(&obs.Title),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
		chromedp.CaptureScreenshot(&obs.Screenshot),
	)
	if err != nil {
		return observation{}, err
	}

	if len(text) > opts.PageTextLimit {
		text = text[:opts.PageTextLimit]
	}
	obs.PageText = text
	return obs, nil
}
