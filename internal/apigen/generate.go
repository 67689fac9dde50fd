package apigen

import (
	"context"
	"time"

	"apiforge/internal/crud"
	"apiforge/internal/database"
	"apiforge/internal/dbschema"
	"apiforge/internal/filestore"
	"apiforge/internal/graphqlgen"
	"apiforge/internal/introspect"
	"apiforge/internal/logger"
)

// Params describes one generation request.
type Params struct {
	TenantID string
	Database *database.Config
	API      Config
}

// Generator runs the full generation pipeline: connect, introspect,
// build the REST and GraphQL surfaces.
type Generator struct {
	log   *logger.Logger
	files filestore.Store
}

// NewGenerator returns a Generator logging through log. files may be
// nil; upload routes are generated only when a store is available and
// the tenant's config enables them.
func NewGenerator(log *logger.Logger, files filestore.Store) *Generator {
	return &Generator{log: log, files: files}
}

// Generate connects to the tenant database and produces a fresh
// artifact. On any failure the new connection pool is closed and no
// artifact is returned, so a previously registered artifact stays
// untouched.
func (g *Generator) Generate(ctx context.Context, p Params) (*Artifact, error) {
	log := g.log.With("tenant", p.TenantID)

	db, err := database.Open(ctx, p.Database)
	if err != nil {
		log.Error().Err(err).Msg("failed to open tenant database")
		return nil, err
	}

	// Readiness check before introspection, bounded so a hung database
	// cannot stall the management plane.
	pingTimeout := p.Database.ConnectTimeout
	if pingTimeout <= 0 {
		pingTimeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err = db.Ping(pingCtx)
	cancel()
	if err != nil {
		db.Close()
		log.Error().Err(err).Msg("tenant database not ready")
		return nil, err
	}

	art, err := NewArtifact(ctx, p.TenantID, db, p.Database.Dialect, p.API, g.files)
	if err != nil {
		db.Close()
		log.Error().Err(err).Msg("generation failed")
		return nil, err
	}

	log.Info().
		Str("database", art.Schema.DatabaseName).
		Int("tables", len(art.Schema.Tables)).
		Int("routes", len(art.Routes)).
		Msg("generated tenant API")
	return art, nil
}

// NewArtifact introspects db and assembles the generated surfaces over
// it. Ownership of db transfers to the artifact on success.
func NewArtifact(ctx context.Context, tenantID string, db database.DB, dialect dbschema.Dialect, cfg Config, files filestore.Store) (*Artifact, error) {
	schema, err := introspect.Introspect(ctx, db, dialect)
	if err != nil {
		return nil, err
	}
	return AssembleArtifact(tenantID, db, schema, cfg, files)
}

// AssembleArtifact builds an artifact from an already-introspected
// snapshot.
func AssembleArtifact(tenantID string, db database.DB, schema *dbschema.DatabaseSchema, cfg Config, files filestore.Store) (*Artifact, error) {
	cfg = cfg.normalized()

	exec := crud.NewExecutor(db, schema, cfg.DefaultPageSize, cfg.MaxPageSize)
	gql, err := graphqlgen.Build(exec)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		TenantID:    tenantID,
		Schema:      schema,
		Config:      cfg,
		Routes:      buildRoutes(exec, schema, cfg, files),
		Executor:    exec,
		GraphQL:     gql,
		GeneratedAt: time.Now().UTC(),
		db:          db,
		limiter:     newLimiter(cfg.RateLimitPerMinute),
	}, nil
}
