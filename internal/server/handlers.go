package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"apiforge/internal/apigen"
	"apiforge/internal/database"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"tenants": len(s.reg.Statuses()),
	})
}

// --- management plane ---

// generateRequest is the POST body for tenant generation.
type generateRequest struct {
	Dialect string `json:"dialect"`
	DSN     string `json:"dsn"`

	// Config overrides the server-wide generation defaults when set.
	Config *apigen.Config `json:"config,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	body, err := s.readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, errs.New(errs.ErrKindValidation, "request body is not a JSON object"))
		return
	}
	if req.DSN == "" {
		s.writeError(w, r, errs.New(errs.ErrKindValidation, "dsn is required"))
		return
	}

	apiCfg := s.cfg.API
	if req.Config != nil {
		apiCfg = *req.Config
	}

	art, err := s.gen.Generate(r.Context(), apigen.Params{
		TenantID: tenant,
		Database: database.DefaultConfig(dbschema.ParseDialect(req.Dialect), req.DSN),
		API:      apiCfg,
	})
	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return
	}

	s.reg.Put(art)
	generationsTotal.WithLabelValues("success").Inc()
	tenantsRegistered.Set(float64(len(s.reg.Statuses())))

	writeJSON(w, http.StatusCreated, art.Status())
}

func (s *Server) handleListTenants(w http.ResponseWriter, _ *http.Request) {
	statuses := s.reg.Statuses()
	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": statuses,
		"count":   len(statuses),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	art, ok := s.reg.Get(chi.URLParam(r, "tenant"))
	if !ok {
		s.writeError(w, r, tenantNotFound(r))
		return
	}
	writeJSON(w, http.StatusOK, art.Status())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	art, ok := s.reg.Get(chi.URLParam(r, "tenant"))
	if !ok {
		s.writeError(w, r, tenantNotFound(r))
		return
	}
	writeJSON(w, http.StatusOK, art.Schema)
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	art, ok := s.reg.Get(chi.URLParam(r, "tenant"))
	if !ok {
		s.writeError(w, r, tenantNotFound(r))
		return
	}
	eps := art.Endpoints()
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": eps,
		"count":     len(eps),
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if !s.reg.Remove(chi.URLParam(r, "tenant")) {
		s.writeError(w, r, tenantNotFound(r))
		return
	}
	tenantsRegistered.Set(float64(len(s.reg.Statuses())))
	w.WriteHeader(http.StatusNoContent)
}

// --- data plane ---

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	path := "/" + chi.URLParam(r, "*")

	body, err := s.readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.reg.Dispatch(r.Context(), tenant, r.Method, path, r.URL.Query(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, resp.Status, resp.Body)
}

// --- GraphQL ---

// graphqlRequest is the standard GraphQL-over-HTTP POST body.
type graphqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	art, ok := s.reg.Get(chi.URLParam(r, "tenant"))
	if !ok {
		s.writeError(w, r, tenantNotFound(r))
		return
	}

	body, err := s.readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req graphqlRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Query == "" {
		s.writeError(w, r, errs.New(errs.ErrKindValidation, "request body must carry a GraphQL query"))
		return
	}

	result := art.GraphQL.Execute(r.Context(), req.Query, req.Variables, req.OperationName)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSDL(w http.ResponseWriter, r *http.Request) {
	art, ok := s.reg.Get(chi.URLParam(r, "tenant"))
	if !ok {
		s.writeError(w, r, tenantNotFound(r))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(art.GraphQL.SDL))
}

// readBody drains the request body under the configured size cap.
func (s *Server) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	limit := s.cfg.Server.MaxBodyBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to read request body", err)
	}
	if int64(len(body)) > limit {
		return nil, errs.New(errs.ErrKindValidation, "request body too large")
	}
	return body, nil
}

func tenantNotFound(r *http.Request) error {
	return errs.Newf(errs.ErrKindNotFound, "no API generated for tenant %q", chi.URLParam(r, "tenant"))
}
