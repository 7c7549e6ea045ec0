// Package local implements the provider interface on top of the host
// operating system filesystem.
package local

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/wildcard/fs"
)

// LocalFilesystem exposes the OS filesystem, optionally confined below
// a root directory. With an empty root, paths are used as given and the
// empty path names the process working directory.
type LocalFilesystem struct {
	root string
}

// New creates a LocalFilesystem. A non-empty root confines all
// operations below that directory, which is what tests use together
// with relative path patterns.
func New(root string) *LocalFilesystem {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &LocalFilesystem{root: root}
}

// Stat returns information about a file or directory, following symlinks.
func (lf *LocalFilesystem) Stat(ctx context.Context, path string) (*fs.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := lf.resolve(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError(err)
	}

	return fileInfoToInfo(info, path), nil
}

// Lstat returns information about a file or directory without following
// a final symlink.
func (lf *LocalFilesystem) Lstat(ctx context.Context, path string) (*fs.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := lf.resolve(path)
	info, err := os.Lstat(fullPath)
	if err != nil {
		return nil, mapError(err)
	}

	return fileInfoToInfo(info, path), nil
}

// OpenDir reads the directory in one shot and returns a slice-backed
// cursor over its entries. Reading eagerly avoids holding an OS handle
// open for every suspended traversal level.
func (lf *LocalFilesystem) OpenDir(ctx context.Context, path string) (fs.Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := lf.resolve(path)
	dirEntries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]fs.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, fs.Entry{
			Name: de.Name(),
			Type: entryType(de.Type()),
		})
	}

	return fs.NewSliceDir(entries), nil
}

// Canonical resolves all symlinks in path to a stable identity.
func (lf *LocalFilesystem) Canonical(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(lf.resolve(path))
	if err != nil {
		return "", mapError(err)
	}

	return resolved, nil
}

// CaseInsensitive reports the platform default for the host OS.
func (lf *LocalFilesystem) CaseInsensitive() bool {
	return fs.PlatformCaseInsensitive
}

// resolve joins the optional root with the given path and normalizes
// the trailing separator the engine uses to tag directories.
func (lf *LocalFilesystem) resolve(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	if lf.root == "" {
		if path == "" {
			return "."
		}
		return path
	}

	return filepath.Join(lf.root, path)
}

func entryType(mode iofs.FileMode) fs.EntryType {
	switch {
	case mode.IsDir():
		return fs.EntryTypeDirectory
	case mode&iofs.ModeSymlink != 0:
		return fs.EntryTypeSymlink
	case mode.IsRegular():
		return fs.EntryTypeFile
	default:
		return fs.EntryTypeOther
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return fs.ErrNotExist
	case errors.Is(err, iofs.ErrPermission):
		return fs.ErrPermission
	default:
		return err
	}
}

func fileInfoToInfo(info iofs.FileInfo, path string) *fs.Info {
	return &fs.Info{
		Name:    info.Name(),
		Path:    path,
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}
