// Package server exposes the three HTTP surfaces: the management plane
// for generating and inspecting tenant APIs, the data plane serving the
// generated REST routes, and the GraphQL endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apiforge/internal/apigen"
	"apiforge/internal/config"
	"apiforge/internal/errs"
	"apiforge/internal/logger"
	"apiforge/internal/registry"
)

// Server ties the registry and generator to the HTTP listener.
type Server struct {
	cfg *config.Config
	log *logger.Logger
	reg *registry.Registry
	gen *apigen.Generator

	httpSrv *http.Server
}

// New assembles the router and listener.
func New(cfg *config.Config, log *logger.Logger, reg *registry.Registry, gen *apigen.Generator) *Server {
	s := &Server{cfg: cfg, log: log, reg: reg, gen: gen}
	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}
	return s
}

// Handler returns the assembled router. Exposed for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Server.Addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(recordMetrics)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Get("/", s.handleListTenants)
		r.Post("/{tenant}/generate", s.handleGenerate)
		r.Get("/{tenant}/status", s.handleStatus)
		r.Get("/{tenant}/schema", s.handleSchema)
		r.Get("/{tenant}/endpoints", s.handleEndpoints)
		r.Delete("/{tenant}", s.handleRemove)
	})

	r.HandleFunc("/api/data/{tenant}/*", s.handleData)

	r.Post("/api/graphql/{tenant}", s.handleGraphQL)
	r.Get("/api/graphql/{tenant}/sdl", s.handleSDL)

	return r
}

// writeJSON serializes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the error kind to a status and emits the client-safe
// message. The full error, including driver causes, stays in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := kind.HTTPStatus()

	evt := s.log.Warn()
	if status >= http.StatusInternalServerError {
		evt = s.log.Error()
	}
	evt.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")

	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    kind.String(),
			"message": errs.PublicMessage(err),
		},
	})
}
