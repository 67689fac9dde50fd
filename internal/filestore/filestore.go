// Package filestore defines the object-storage contract backing the
// generated file-upload endpoints. Callers depend only on this package,
// never on a specific provider.
package filestore

import (
	"context"
	"io"
	"strings"
	"time"
)

// Store is the interface every object-storage provider implements.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put stores size bytes from r at key in the configured bucket.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// Stat returns metadata for the object at key without downloading it.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// List returns the objects under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// PresignGetURL returns a time-limited download URL for the object.
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Config holds the settings for one object-storage backend.
type Config struct {
	// Endpoint is the host:port of the storage server.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Region is used by region-aware backends. Empty for MinIO.
	Region string `yaml:"region"`

	// Bucket is where all tenant uploads live, separated by key prefix.
	Bucket string `yaml:"bucket"`
}

// ObjectKey builds the storage key for an upload. Keys are namespaced
// tenant/table/record so one bucket serves every tenant.
func ObjectKey(tenantID, table, recordID, filename string) string {
	return strings.Join([]string{tenantID, table, recordID, filename}, "/")
}

// RecordPrefix is the key prefix holding all uploads for one record.
func RecordPrefix(tenantID, table, recordID string) string {
	return strings.Join([]string{tenantID, table, recordID}, "/") + "/"
}
