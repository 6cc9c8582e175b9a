// Package main writes a user's comparative ROAS report to an HTML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/analysis"
	"github.com/leeaandrob/roascalc/internal/auth"
	"github.com/leeaandrob/roascalc/internal/config"
	"github.com/leeaandrob/roascalc/internal/insights"
	"github.com/leeaandrob/roascalc/internal/storage"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	email := flag.String("email", "", "e-mail of the registered user")
	out := flag.String("out", "", "output file (default relatorio-<date>.html)")
	flag.Parse()

	if *email == "" {
		log.Fatal().Msg("-email is required")
	}
	if *out == "" {
		*out = fmt.Sprintf("relatorio-%s.html", time.Now().Format("2006-01-02"))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}

	err = run(ctx, store, *email, *out)
	if cerr := store.Close(ctx); cerr != nil {
		log.Warn().Err(cerr).Msg("Failed to close store")
	}
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("Export failed")
	}
}

func run(ctx context.Context, store storage.Store, email, out string) error {
	user, err := store.FindUserByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	svc := analysis.NewService(store, insights.NewGenerator(nil, 0))
	doc, err := svc.ComparativeHTML(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Int("bytes", len(doc)).
		Str("out", out).
		Msg("Report exported")
	return nil
}
