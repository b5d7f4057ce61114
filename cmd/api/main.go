package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	zLog "github.com/rs/zerolog/log"

	"go-browserpilot/internal/agent/browser"
	"go-browserpilot/internal/api"
	"go-browserpilot/internal/config"
	"go-browserpilot/internal/orchestrator"
	"go-browserpilot/pkg/logger"
	"go-browserpilot/pkg/models"
)

func main() {
	log.Println("starting server")
	cfg := config.Load()
	if err := logger.NewGlobal(cfg.LogLevel, cfg.PrettyLogs); err != nil {
		log.Panicf("failed to initialize logger: %v", err)
	}

	system := actor.NewActorSystem().Root
	app := api.New(system, api.Options{
		Addr:            cfg.Addr,
		DefaultProvider: models.Provider(cfg.DefaultProvider),
		Credentials: models.Credentials{
			OpenAIKey:             cfg.OpenAIKey,
			GoogleCredentialsFile: cfg.GoogleCredentialsFile,
		},
		Policy: orchestrator.Policy{
			MaxSteps: cfg.MaxSteps,
			Timeout:  cfg.RunTimeout,
		},
		FrameDelay: cfg.FrameDelay,
		Automator: browser.New(browser.Options{
			ChromePath: cfg.ChromePath,
			Headless:   cfg.Headless,
		}),
	})

	go func() {
		err := app.Start()
		if err != nil {
			zLog.Panic().Err(err).Msg("server crash")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	stop()
	zLog.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		zLog.Panic().Err(err).Msg("server forced to shutdown")
	}

	zLog.Info().Msg("server exiting")
}
