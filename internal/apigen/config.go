// Package apigen generates the per-tenant REST surface from an
// introspected schema snapshot: one set of CRUD routes per table plus
// metadata routes, all backed by the shared crud executor.
package apigen

// Config tunes the generated API for one tenant. Zero values select the
// documented defaults.
type Config struct {
	DefaultPageSize      int  `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize          int  `yaml:"max_page_size" json:"max_page_size"`
	EnableBulkOperations bool `yaml:"enable_bulk_operations" json:"enable_bulk_operations"`
	EnableFileUploads    bool `yaml:"enable_file_uploads" json:"enable_file_uploads"`

	// RateLimitPerMinute caps data-plane requests per tenant.
	// Zero disables rate limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: 20,
		MaxPageSize:     1000,
	}
}

// normalized fills in defaults for unset pagination fields.
func (c Config) normalized() Config {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 1000
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	return c
}
