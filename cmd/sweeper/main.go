// The sweeper periodically re-queries the generation provider for pending jobs
// whose webhook never arrived and expires records stuck in pending.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidgen/internal/adapter/repo"
	"vidgen/internal/generation"
	"vidgen/internal/infra"
	"vidgen/internal/providers/wavespeed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	client := wavespeed.NewClient(wavespeed.Options{
		APIKey:         cfg.WaveSpeedAPIKey,
		BaseURL:        cfg.WaveSpeedAPIURL,
		WebhookURL:     cfg.WebhookURL(),
		Logger:         &logger,
		RequestTimeout: cfg.SubmitTimeout,
	})
	if !client.HasCredentials() {
		logger.Fatal().Msg("sweeper: WAVESPEED_API_KEY is required")
	}

	orchestrator := generation.New(
		repo.NewProfileRepository(pool),
		repo.NewGenerationRepository(pool),
		client,
		logger,
		generation.Config{
			Enabled:       true,
			SubmitTimeout: cfg.SubmitTimeout,
			PollDelay:     cfg.PollDelay,
			PollBatch:     cfg.PollBatch,
			PendingMaxAge: cfg.PendingMaxAge,
		},
	)

	logger.Info().
		Dur("interval", cfg.PollInterval).
		Int("batch", cfg.PollBatch).
		Msg("sweeper started")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	sweep(ctx, orchestrator, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, orchestrator, logger)
		}
	}
}

func sweep(ctx context.Context, orchestrator *generation.Orchestrator, logger infra.Logger) {
	reconciled, expired, err := orchestrator.Sweep(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if reconciled > 0 || expired > 0 {
		logger.Info().
			Int("reconciled", reconciled).
			Int("expired", expired).
			Msg("sweep finished")
	}
}
