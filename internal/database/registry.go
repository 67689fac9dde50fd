package database

import (
	"context"
	"sort"
	"sync"

	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// ConnectFunc opens a pooled connection for one dialect.
type ConnectFunc func(ctx context.Context, cfg *Config) (DB, error)

var (
	driversMu sync.RWMutex
	drivers   = map[dbschema.Dialect]ConnectFunc{}
)

// Register makes a driver available under the given dialect. Drivers call
// it from their init function, mirroring database/sql registration; callers
// import the driver package for its side effect.
func Register(dialect dbschema.Dialect, fn ConnectFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[dialect] = fn
}

// Open connects to the database described by cfg using the registered
// driver for its dialect.
func Open(ctx context.Context, cfg *Config) (DB, error) {
	driversMu.RLock()
	fn, ok := drivers[cfg.Dialect]
	driversMu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.ErrKindConnectionFailed,
			"no driver registered for dialect %q (registered: %v)", cfg.Dialect, registered())
	}
	return fn(ctx, cfg)
}

func registered() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for d := range drivers {
		names = append(names, string(d))
	}
	sort.Strings(names)
	return names
}
