package wildcard

import (
	"context"

	"github.com/mwantia/wildcard/fs"
)

// Find expands pattern against the local filesystem and returns every
// matching path.
func Find(ctx context.Context, pattern string) ([]string, error) {
	return FindFS(ctx, nil, pattern)
}

// FindFS expands pattern against fsys and returns every matching path.
// A nil fsys falls back to the local filesystem.
func FindFS(ctx context.Context, fsys fs.Filesystem, pattern string) ([]string, error) {
	options := []Option{WithPath(pattern), WithoutTerminalLog()}
	if fsys != nil {
		options = append(options, WithFilesystem(fsys))
	}

	w, err := New(options...)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	var paths []string
	for w.Next(ctx) {
		paths = append(paths, w.Path())
	}

	return paths, w.Err()
}
