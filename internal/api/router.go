// Package api exposes the HTTP interface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/analysis"
	"github.com/leeaandrob/roascalc/internal/auth"
	"github.com/leeaandrob/roascalc/internal/metrics"
	"github.com/leeaandrob/roascalc/internal/storage"
)

// Server represents the API server.
type Server struct {
	router *chi.Mux
	addr   string
	server *http.Server
}

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
}

// NewServer creates a new API server.
func NewServer(svc *analysis.Service, accounts *auth.Service, tokens *auth.Tokens, store storage.Store, opts Options) *Server {
	handlers := NewHandlers(svc, accounts, store)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Public calculator flow
		r.Post("/leads", handlers.SaveLead)
		r.Post("/roas", handlers.ComputeROAS)

		// Accounts
		r.Post("/auth/register", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens, respondAppError))

			r.Get("/auth/me", handlers.Me)
			r.Get("/dashboard", handlers.GetDashboard)
			r.Get("/dashboard/report", handlers.GetComparativeReport)
			r.Get("/analyses/{id}/report", handlers.DownloadAnalysisReport)
		})
	})

	return &Server{router: r, addr: opts.Addr}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
