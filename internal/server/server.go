// Package server exposes the review service over HTTP for the browser UI.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pa-review-service/internal/service"
)

// Config holds server configuration.
type Config struct {
	Addr            string
	AllowAllOrigins bool
}

// Server wires the facade and the audit hub into a chi router.
type Server struct {
	cfg        Config
	svc        *service.Service
	hub        *AuditHub
	router     chi.Router
	httpServer *http.Server
}

// New creates the HTTP server. The hub must be the same instance the service
// publishes to.
func New(cfg Config, svc *service.Service, hub *AuditHub) *Server {
	s := &Server{cfg: cfg, svc: svc, hub: hub}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User", "X-Role", "X-Simulate-Offline"},
		MaxAge:         300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/cases", func(r chi.Router) {
		r.Get("/", s.handleListCases)
		r.Get("/{caseID}", s.handleGetCase)
		r.Post("/{caseID}/extractions/{fieldID}", s.handleEditField)
		r.Post("/{caseID}/decision", s.handleSubmitDecision)
		r.Get("/{caseID}/audit/stream", s.handleAuditStream)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("review api listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
