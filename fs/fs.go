// Package fs defines the filesystem provider interface consumed by the
// wildcard traversal engine, together with the small helper types shared
// by the provider implementations under fs/.
package fs

import (
	"context"
	"time"
)

// EntryType classifies a directory entry without following symlinks.
type EntryType int

const (
	EntryTypeFile EntryType = iota
	EntryTypeDirectory
	EntryTypeSymlink
	EntryTypeOther
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeFile:
		return "file"
	case EntryTypeDirectory:
		return "directory"
	case EntryTypeSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is a single directory entry as reported by a Dir cursor.
// Names never contain a path separator; providers never report
// the "." and ".." pseudo entries.
type Entry struct {
	Name string
	Type EntryType
}

// Info describes a single filesystem object.
type Info struct {
	Name    string
	Path    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// Filesystem is the read-only view of a filesystem tree that the
// traversal engine walks. Paths are /-separated; the empty path names
// the provider's working directory and "/" names its root. Paths
// handed in by the engine may carry a trailing separator, which
// providers must tolerate.
type Filesystem interface {
	// Stat returns information about the object at path, following
	// symlinks. Returns ErrNotExist if the path does not exist.
	Stat(ctx context.Context, path string) (*Info, error)

	// Lstat returns information about the object at path without
	// following a final symlink component.
	Lstat(ctx context.Context, path string) (*Info, error)

	// OpenDir opens a directory for entry iteration. The returned
	// cursor stays valid across calls until closed. Returns
	// ErrNotDirectory if the path names a non-directory.
	OpenDir(ctx context.Context, path string) (Dir, error)

	// Canonical resolves path to a stable identity string used for
	// symlink cycle detection. Two paths naming the same directory
	// must resolve to the same identity.
	Canonical(ctx context.Context, path string) (string, error)

	// CaseInsensitive reports whether name matching on this
	// filesystem ignores case by default.
	CaseInsensitive() bool
}

// Dir is an open directory cursor. Next returns entries one at a time
// and io.EOF once exhausted; the cursor may be held open across an
// arbitrary number of calls before Close.
type Dir interface {
	Next(ctx context.Context) (Entry, error)
	Close() error
}
