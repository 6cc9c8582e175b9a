// ROASCalc - ROAS calculator and lead capture API.
// Computes return on ad spend, writes an analysis narrative and keeps a
// per-user history with monthly rollups.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/analysis"
	"github.com/leeaandrob/roascalc/internal/api"
	"github.com/leeaandrob/roascalc/internal/auth"
	"github.com/leeaandrob/roascalc/internal/config"
	"github.com/leeaandrob/roascalc/internal/insights"
	"github.com/leeaandrob/roascalc/internal/llm"
	"github.com/leeaandrob/roascalc/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("ROASCalc - Starting API")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize storage
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := storage.Open(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}
	defer store.Close(ctx)

	// Initialize text generation client
	var textGen insights.TextGenerator
	if cfg.OpenAIAPIKey != "" {
		textGen = llm.NewClient(llm.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: float32(cfg.LLMTemperature),
		})
		log.Info().Str("model", cfg.OpenAIModel).Msg("LLM client initialized")
	} else {
		log.Warn().Msg("LLM client not initialized (no API key)")
	}

	generator := insights.NewGenerator(textGen, cfg.LLMTimeout)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	svc := analysis.NewService(store, generator)
	accounts := auth.NewService(store, tokens)

	apiServer := api.NewServer(svc, accounts, tokens, store, api.Options{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	log.Info().
		Str("api", cfg.HTTPAddr).
		Str("store", cfg.StoreDriver).
		Msg("ROASCalc running")

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 15*time.Second)
	defer cancelShutdown()
	apiServer.Shutdown(shutdownCtx)

	log.Info().Msg("ROASCalc stopped")
}
