package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dtp-id/talenta/internal/ai"
	"github.com/dtp-id/talenta/internal/catalog"
	"github.com/dtp-id/talenta/internal/config"
	"github.com/dtp-id/talenta/internal/events"
	"github.com/dtp-id/talenta/internal/metrics"
	"github.com/dtp-id/talenta/internal/storage"
	"github.com/dtp-id/talenta/internal/watcher"
	"github.com/dtp-id/talenta/internal/worker"
)

var errSettingsChanged = errors.New("settings changed, restart required")

func newServeCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server until interrupted.

Object storage and RabbitMQ are optional: when they are unreachable the server
starts without uploads or without the AMQP event feed. Editing the settings
file stops the server with exit code 3 so a supervisor can restart it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), loadConfig(*debug))
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cat, err := catalog.Load(filepath.Join(config.DataDir(), catalog.FileName))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid catalog file, using built-in catalog")
		cat = catalog.Default()
	}

	client, err := ai.New(ai.Config{
		Provider:      cfg.AIProvider,
		BaseURL:       cfg.AIBaseURL,
		InterviewPath: cfg.AIInterviewPath,
		MappingPath:   cfg.AIMappingPath,
		QuestionsPath: cfg.AIQuestionsPath,
		Model:         cfg.AIModel,
		APIKey:        cfg.AIAPIKey,
		Timeout:       cfg.AITimeout(),
	})
	if err != nil {
		return err
	}

	recorder, err := metrics.New()
	if err != nil {
		log.Warn().Err(err).Msg("Metrics disabled")
	}

	deps := worker.Deps{
		Config:  cfg,
		Store:   store,
		AI:      client,
		Catalog: cat,
		Metrics: recorder,
		Version: Version,
	}

	objects, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		Secure:    cfg.StorageSecure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Object storage disabled")
	} else {
		if err := objects.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", objects.Bucket()).Msg("Failed to ensure bucket")
		}
		deps.Objects = objects
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.DialAMQP(cfg.RabbitMQURL)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, session events go to SSE only")
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
		}
	}

	svc, err := worker.NewService(deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	w, err := watcher.New(config.SettingsPath(), func() {
		cancel(errSettingsChanged)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Settings watcher disabled")
	} else {
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start settings watcher")
		}
		defer w.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Start(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if errors.Is(context.Cause(ctx), errSettingsChanged) {
		log.Info().Msg("Settings file changed, exiting for restart")
		return errSettingsChanged
	}
	return nil
}
