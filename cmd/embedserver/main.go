package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-analytics-embed/pkg/telemetry"
)

type cli struct {
	EnvFile []string `name:"env-file" default:".env" help:"Env files loaded before parsing the environment."`
	Addr    string   `help:"Listen address; overrides ADDRESS."`
	Seed    bool     `default:"true" negatable:"" help:"Seed the starter analytics on boot."`
}

func main() {
	var flags cli
	kctx := kong.Parse(&flags,
		kong.Description("Serves analytic embeds, the editor API and live update streams."),
		kong.UsageOnError(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	kctx.FatalIfErrorf(flags.Run(ctx))
}

func (c *cli) Run(ctx context.Context) error {
	cfg, err := LoadConfig(c.EnvFile...)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Address = c.Addr
	}
	logger := telemetry.NewLogger(cfg.Log)

	a, err := buildApp(ctx, cfg, logger, c.Seed)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil {
				logger.WithError(err).Warn("catalog watcher stopped")
			}
		}()
	}

	server := router.NewFiberAdapter()
	var appRouter router.Router[*fiber.App] = server.Router()
	if err := a.register(appRouter, cfg.BasePath); err != nil {
		return err
	}
	if err := a.logSnippets(ctx, cfg.PublicURL); err != nil {
		logger.WithError(err).Warn("list analytics")
	}

	logger.WithField("address", cfg.Address).Info("analytic embed server listening")
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(cfg.Address) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}
