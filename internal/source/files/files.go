// Package files reads the published statistics from a local directory tree,
// laid out exactly as on the web: data/index.json, data/banks.json and
// data/YYYY-MM.json.
package files

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

type Store struct {
	fsys fs.FS
}

var _ source.Fetcher = (*Store)(nil)

func New(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// NewFromDir serves the tree rooted at dir.
func NewFromDir(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return New(os.DirFS(dir))
}

// NewSource returns a decoding Source over the directory.
func NewSource(dir string) *source.Reader {
	return source.NewReader(NewFromDir(dir))
}

// Fetch reads the file at p. A missing file is a 404 FetchError, any other
// read failure a 500 one.
func (s *Store) Fetch(ctx context.Context, p string) ([]byte, error) {
	p = path.Clean(p)
	data, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewNotFound(p)
		}
		slog.WarnContext(ctx, "Resource read failed", "path", p, "error", err)
		return nil, &core.FetchError{Path: p, Status: 500}
	}
	return data, nil
}
