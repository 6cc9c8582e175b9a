package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/config"
)

// Open connects the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.DriverPostgREST:
		s := NewPostgRESTStore(cfg.PostgRESTURL, cfg.PostgRESTAPIKey)
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach postgrest: %w", err)
		}
		log.Info().Str("url", cfg.PostgRESTURL).Msg("Connected to PostgREST")
		return s, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
