package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vidgen/internal/adapter/repo"
	"vidgen/internal/generation"
	"vidgen/internal/http/handlers"
	"vidgen/internal/http/httpapi"
	"vidgen/internal/infra"
	"vidgen/internal/infra/geoip"
	"vidgen/internal/middleware"
	"vidgen/internal/migrations"
	"vidgen/internal/providers/wavespeed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	if err := migrations.Run(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country lookups disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	client := wavespeed.NewClient(wavespeed.Options{
		APIKey:         cfg.WaveSpeedAPIKey,
		BaseURL:        cfg.WaveSpeedAPIURL,
		WebhookURL:     cfg.WebhookURL(),
		Logger:         &logger,
		RequestTimeout: cfg.SubmitTimeout,
	})
	if !client.HasCredentials() {
		logger.Warn().Msg("WAVESPEED_API_KEY not set, generation submissions disabled")
	}

	profiles := repo.NewProfileRepository(dbpool)
	generations := repo.NewGenerationRepository(dbpool)
	orchestrator := generation.New(profiles, generations, client, logger, generation.Config{
		Enabled:       client.HasCredentials(),
		SubmitTimeout: cfg.SubmitTimeout,
		PollDelay:     cfg.PollDelay,
		PollBatch:     cfg.PollBatch,
		PendingMaxAge: cfg.PendingMaxAge,
	})

	app := &handlers.App{
		Logger:             logger,
		Orchestrator:       orchestrator,
		Profiles:           profiles,
		Generations:        generations,
		GenerationEnabled:  client.HasCredentials(),
		TestCreditsEnabled: cfg.TestCreditsEnabled,
		TestCreditAmount:   cfg.TestCreditAmount,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
