package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"go-browserpilot/internal/agent"
	"go-browserpilot/internal/orchestrator"
	"go-browserpilot/internal/run"
	"go-browserpilot/pkg/logger"
	"go-browserpilot/pkg/messages"
	"go-browserpilot/pkg/models"
)

type submitRequest struct {
	Task     string `json:"task"`
	Provider string `json:"provider,omitempty"`
}

type submitResponse struct {
	Id string `json:"id"`
}

type cancelResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options carries everything a run needs beyond the instruction itself.
type Options struct {
	Addr            string
	DefaultProvider models.Provider
	Credentials     models.Credentials
	Policy          orchestrator.Policy
	FrameDelay      time.Duration
	Automator       agent.Automator

	// Resolver overrides the provider wiring; nil uses the real one.
	Resolver orchestrator.Resolver
}

type Server struct {
	ac     *actor.RootContext
	server *http.Server
	state  *runsCache
}

func New(ac *actor.RootContext, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(logMiddleware())
	runs := newRunsCache()

	r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Msg("new run request")
		cmd := submitRequest{}
		if err := unmarshalRequestBody(req, &cmd); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			log.Debug().Msg("cannot parse body")
			render.JSON(w, req, errorResponse{Error: "unable to parse body"})
			return
		}
		if strings.TrimSpace(cmd.Task) == "" {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, req, errorResponse{Error: "task must not be empty"})
			return
		}
		provider := models.Provider(cmd.Provider)
		if provider == "" {
			provider = opts.DefaultProvider
		}

		decider := func(reason interface{}) actor.Directive {
			log.Error().Msgf("handling failure for child. reason: %v", reason)
			// a restarted actor would come back with no run to resume
			return actor.StopDirective
		}
		strategy := actor.NewOneForOneStrategy(3, 10000, decider)

		props := actor.PropsFromProducer(
			run.NewProducer(opts.Automator, opts.Resolver, opts.Policy, opts.FrameDelay),
			actor.WithSupervisor(strategy),
		)
		pid := ac.Spawn(props)

		id := uuid.New()
		ac.Send(pid, messages.StartRun{RunID: id, Request: models.TaskRequest{
			Instruction: cmd.Task,
			Provider:    provider,
			Credentials: opts.Credentials,
		}})
		runs.add(id, pid)

		log.Debug().Str(logger.RunIDField, id.String()).Msg("run has been started")
		render.JSON(w, req, submitResponse{Id: id.String()})
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Msg("status request")
		pid, id, ok := lookup(w, req, runs)
		if !ok {
			return
		}

		future := ac.RequestFuture(pid, messages.GetStatus{}, time.Minute) // blocking
		res, err := future.Result()
		if err != nil {
			runs.remove(id)
			w.WriteHeader(http.StatusInternalServerError)
			log.Error().Str(logger.RunIDField, id.String()).Err(err).Msg("unable to get status from actor")
			return
		}

		if status, ok := res.(run.StatusView); ok {
			render.JSON(w, req, status)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			log.Error().Str(logger.RunIDField, id.String()).Msg("unknown status from actor")
		}
	})

	r.Get("/runs/{id}/artifact", func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Msg("artifact request")
		pid, id, ok := lookup(w, req, runs)
		if !ok {
			return
		}

		future := ac.RequestFuture(pid, messages.GetArtifact{}, time.Minute)
		res, err := future.Result()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			log.Error().Str(logger.RunIDField, id.String()).Err(err).Msg("unable to get artifact from actor")
			return
		}

		view, ok := res.(run.ArtifactView)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			log.Error().Str(logger.RunIDField, id.String()).Msg("unknown artifact from actor")
			return
		}
		if view.RenderErr != "" {
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, req, errorResponse{Error: view.RenderErr})
			return
		}
		if !view.Terminal || len(view.Data) == 0 {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, req, errorResponse{Error: "artifact is not ready"})
			return
		}

		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write(view.Data)
	})

	r.Post("/runs/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Msg("cancel request")
		pid, id, ok := lookup(w, req, runs)
		if !ok {
			return
		}

		ac.Send(pid, messages.CancelRun{})
		log.Info().Str(logger.RunIDField, id.String()).Msg("cancel sent to run")
		w.WriteHeader(http.StatusAccepted)
		render.JSON(w, req, cancelResponse{Status: "canceling"})
	})

	return &Server{
		ac: ac,
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: r,
		},
		state: runs,
	}
}

func lookup(w http.ResponseWriter, req *http.Request, runs *runsCache) (*actor.PID, uuid.UUID, bool) {
	idParam := chi.URLParam(req, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		log.Debug().Msg("cannot parse id")
		render.JSON(w, req, errorResponse{Error: "unable to parse id"})
		return nil, uuid.Nil, false
	}
	pid, ok := runs.get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		log.Debug().Str(logger.RunIDField, idParam).Msg("cannot find id")
		render.JSON(w, req, errorResponse{Error: "unknown run"})
		return nil, id, false
	}
	return pid, id, true
}

func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("http server started")
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}

func unmarshalRequestBody(req *http.Request, output interface{}) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	if err = json.Unmarshal(body, &output); err != nil {
		return err
	}

	return nil
}
