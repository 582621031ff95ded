package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	noteHandler "bulletnotes/internal/note"
	"bulletnotes/internal/note/repository"
	"bulletnotes/internal/note/service"
	"bulletnotes/middleware"
	"bulletnotes/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "bulletnotes"

type Options struct {
	AllowedOrigins []string
	// Registry receives the HTTP metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
}

// Pinger reports whether the note store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Setup wires the postgres-backed note API.
func Setup(db *sql.DB, opts Options) http.Handler {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	opts.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "notes"),
	)

	noteRepo := repository.NewNoteRepository(db)
	noteService := service.NewNoteService(noteRepo)
	return New(noteService, db, opts)
}

// New builds the router around an existing service. health is pinged by
// GET /health.
func New(noteService *service.NoteService, health Pinger, opts Options) http.Handler {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	metrics := middleware.NewMetrics(metricsNamespace, opts.Registry)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger.Log))
	r.Use(metrics.Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", healthCheck(health))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	h := noteHandler.NewNoteHandler(noteService)
	notes := func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Get("/{id}", h.GetNote)
		r.Put("/{id}", h.UpdateNote)
		r.Delete("/{id}", h.DeleteNote)
	}
	r.Route("/notes", notes)
	// Path used by the web frontend.
	r.Route("/api/notes", notes)

	return r
}

func healthCheck(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, body := http.StatusOK, map[string]string{"status": "healthy"}
		if err := p.PingContext(ctx); err != nil {
			logger.Sugar.Errorf("Health check failed: %v", err)
			status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
