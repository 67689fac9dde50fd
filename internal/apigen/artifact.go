package apigen

import (
	"time"

	"golang.org/x/time/rate"

	"apiforge/internal/crud"
	"apiforge/internal/database"
	"apiforge/internal/dbschema"
	"apiforge/internal/graphqlgen"
)

// Artifact is the complete generated API for one tenant: the schema
// snapshot, the REST route table, the GraphQL schema, and the executor
// they share. An Artifact is immutable after generation; regeneration
// builds a new one and the registry swaps the pointer.
type Artifact struct {
	TenantID    string
	Schema      *dbschema.DatabaseSchema
	Config      Config
	Routes      []Route
	Executor    *crud.Executor
	GraphQL     *graphqlgen.Artifact
	GeneratedAt time.Time

	db      database.DB
	limiter *rate.Limiter
}

// Match finds the route serving method and path and returns the bound
// path parameters.
func (a *Artifact) Match(method, path string) (*Route, map[string]string, bool) {
	segments := splitPath(path)
	for i := range a.Routes {
		if params, ok := a.Routes[i].match(method, segments); ok {
			return &a.Routes[i], params, true
		}
	}
	return nil, nil, false
}

// Allow reports whether the tenant's rate limit admits one more request.
// Artifacts without a configured limit always admit.
func (a *Artifact) Allow() bool {
	return a.limiter == nil || a.limiter.Allow()
}

// Close releases the tenant's connection pool. Called by the registry
// once the artifact has been replaced or removed.
func (a *Artifact) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// Status is the management-plane summary of one generated artifact.
type Status struct {
	TenantID    string    `json:"tenant_id"`
	Database    string    `json:"database"`
	Dialect     string    `json:"dialect"`
	TableCount  int       `json:"table_count"`
	RouteCount  int       `json:"route_count"`
	PKStrategy  string    `json:"pk_strategy"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Status summarizes the artifact for the management plane.
func (a *Artifact) Status() Status {
	return Status{
		TenantID:    a.TenantID,
		Database:    a.Schema.DatabaseName,
		Dialect:     string(a.Schema.Dialect),
		TableCount:  len(a.Schema.Tables),
		RouteCount:  len(a.Routes),
		PKStrategy:  "first_column",
		GeneratedAt: a.GeneratedAt,
	}
}

// Endpoint describes one generated route for listings.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Endpoints lists every generated route.
func (a *Artifact) Endpoints() []Endpoint {
	out := make([]Endpoint, len(a.Routes))
	for i, r := range a.Routes {
		out[i] = Endpoint{Method: r.Method, Path: r.Pattern, Description: r.Description}
	}
	return out
}

// newLimiter converts a per-minute cap into a limiter with matching
// burst. Zero or negative caps disable limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
}
