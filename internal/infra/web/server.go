package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/domain/ports/repository"
)

// Server is the operator-facing control API. It enqueues batches and serves
// their state; the actual migration work happens in the background workers.
type Server struct {
	batches  repository.BatchRepository
	units    repository.MigrationUnitRepository
	progress repository.ProgressLog
	catalog  adapter.SourceCatalog
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	batches repository.BatchRepository,
	units repository.MigrationUnitRepository,
	progress repository.ProgressLog,
	catalog adapter.SourceCatalog,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		batches:  batches,
		units:    units,
		progress: progress,
		catalog:  catalog,
		auth:     auth,
		apiKey:   apiKey,
		log:      &l,
	}
}

// Routes builds the router. Everything under /api/v1 except the token mint
// is behind auth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/token", s.tokenHandler())

	r.Route("/api/v1/migrations", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.createMigrationHandler())
		r.Get("/{id}", s.getMigrationHandler())
		r.Get("/{id}/events", s.listEventsHandler())
	})

	return r
}

// authMiddleware accepts either the static API key or a minted JWT as a
// Bearer token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
				return
			}
			if tokenParts[1] == s.apiKey {
				next.ServeHTTP(w, r)
				return
			}
		}

		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
