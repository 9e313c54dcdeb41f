// Package backend builds the statistics source selected by configuration.
package backend

import (
	"context"
	"slices"
	"time"

	"cardstats/internal/source"
	"cardstats/internal/source/cached"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the source and what it needs at shutdown
type BackendResult struct {
	Source source.Source
	// Cache is the read-through cache in front of the backend, nil when
	// caching is disabled.
	Cache   *cached.Source
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// files
	DataDirectory string

	// http
	BaseURL      string
	FetchTimeout time.Duration

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID string

	// cache; off when CacheTTL is 0
	CacheTTL  time.Duration
	CacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	FilesBackend  BackendType = "files"
	HTTPBackend   BackendType = "http"
	SheetsBackend BackendType = "sheets"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}

// Remote reports whether the backend reads the published statistics rather
// than the local mirror.
func (bt BackendType) Remote() bool {
	return bt.IsValid() && bt != SQLiteBackend
}
