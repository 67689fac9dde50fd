// Package registry holds the live artifact per tenant and dispatches
// data-plane requests to them. Regeneration swaps a whole artifact
// pointer under a write lock, so readers either see the complete old
// surface or the complete new one, never a mix.
package registry

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"apiforge/internal/apigen"
	"apiforge/internal/errs"
	"apiforge/internal/logger"
)

// Registry maps tenant ids to their generated artifacts.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	artifacts map[string]*apigen.Artifact
	log       *logger.Logger
}

// New returns an empty Registry.
func New(log *logger.Logger) *Registry {
	return &Registry{
		artifacts: make(map[string]*apigen.Artifact),
		log:       log,
	}
}

// Put registers art, replacing any previous artifact for the tenant.
// The replaced artifact's pool is closed in the background so in-flight
// requests on it can drain.
func (r *Registry) Put(art *apigen.Artifact) (replaced bool) {
	r.mu.Lock()
	old := r.artifacts[art.TenantID]
	r.artifacts[art.TenantID] = art
	r.mu.Unlock()

	if old != nil {
		go old.Close()
		r.log.Info().Str("tenant", art.TenantID).Msg("replaced tenant artifact")
		return true
	}
	r.log.Info().Str("tenant", art.TenantID).Msg("registered tenant artifact")
	return false
}

// Get returns the tenant's current artifact.
func (r *Registry) Get(tenantID string) (*apigen.Artifact, bool) {
	r.mu.RLock()
	art, ok := r.artifacts[tenantID]
	r.mu.RUnlock()
	return art, ok
}

// Remove drops the tenant's artifact and closes its pool.
func (r *Registry) Remove(tenantID string) bool {
	r.mu.Lock()
	art, ok := r.artifacts[tenantID]
	delete(r.artifacts, tenantID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	go art.Close()
	r.log.Info().Str("tenant", tenantID).Msg("removed tenant artifact")
	return true
}

// Statuses summarizes every registered artifact, sorted by tenant id.
func (r *Registry) Statuses() []apigen.Status {
	r.mu.RLock()
	out := make([]apigen.Status, 0, len(r.artifacts))
	for _, art := range r.artifacts {
		out = append(out, art.Status())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

// Close shuts every artifact down. Used at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	for id, art := range r.artifacts {
		art.Close()
		delete(r.artifacts, id)
	}
	r.mu.Unlock()
}

// Dispatch routes one data-plane request to the tenant's artifact.
// The artifact pointer is captured once, so a concurrent regeneration
// cannot change the surface mid-request.
func (r *Registry) Dispatch(ctx context.Context, tenantID, method, path string, query url.Values, body []byte) (*apigen.Response, error) {
	art, ok := r.Get(tenantID)
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no API generated for tenant %q", tenantID)
	}
	if !art.Allow() {
		return nil, errs.New(errs.ErrKindRateLimited, "rate limit exceeded")
	}

	route, params, ok := art.Match(method, path)
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no route for %s %s", method, path)
	}

	return route.Serve(ctx, &apigen.Request{
		TenantID: tenantID,
		Method:   method,
		Path:     path,
		Params:   params,
		Query:    query,
		Body:     body,
	})
}
