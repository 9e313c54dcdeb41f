package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardstats/internal/cache"
	"cardstats/internal/source"
	"cardstats/internal/source/cached"
	"cardstats/internal/source/files"
	gsheet "cardstats/internal/source/google"
	"cardstats/internal/source/remote"
	"cardstats/internal/storage"
)

const cacheSweepInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case FilesBackend:
		res = f.createFilesBackend(config)
	case HTTPBackend:
		res, err = f.createHTTPBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheTTL > 0 {
		f.wrapWithCache(res, config)
	}
	return res, nil
}

func (f *DefaultFactory) createFilesBackend(config Config) *BackendResult {
	dir := config.DataDirectory
	if dir == "" {
		dir = "."
	}
	f.logger.Info("Initialized files backend", "data_directory", dir)
	return &BackendResult{Source: files.NewSource(dir)}
}

func (f *DefaultFactory) createHTTPBackend(config Config) (*BackendResult, error) {
	src, err := remote.NewSource(config.BaseURL, config.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize http source: %w", err)
	}
	f.logger.Info("Initialized http backend",
		"base_url", config.BaseURL,
		"timeout", config.FetchTimeout)
	return &BackendResult{Source: src}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx, config.GoogleSpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend")
	return &BackendResult{Source: cli}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Source: repo, Cleanup: repo.Close}, nil
}

// wrapWithCache puts a read-through cache in front of the backend and sweeps
// expired entries until cleanup.
func (f *DefaultFactory) wrapWithCache(res *BackendResult, config Config) {
	c := cached.New(res.Source, config.CacheSize, config.CacheTTL)
	mgr := cache.NewManager()
	c.Register(mgr)
	mgr.StartCleanup(cacheSweepInterval)

	next := res.Cleanup
	res.Source = c
	res.Cache = c
	res.Cleanup = func() error {
		mgr.Stop()
		if next != nil {
			return next()
		}
		return nil
	}

	f.logger.Info("Enabled source cache",
		"ttl", config.CacheTTL,
		"size", config.CacheSize)
}

var _ source.Source = (*cached.Source)(nil)
