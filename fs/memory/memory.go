// Package memory implements the provider interface on an in-memory
// tree, used by tests and as the reference for provider conformance.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/wildcard/fs"
	"github.com/tidwall/btree"
)

// Symlink targets are re-resolved at most this many times before the
// walk gives up, mirroring the kernel's loop guard.
const maxLinkHops = 16

// MemoryFilesystem is a thread-safe in-memory tree backed by a B-tree
// path index.
//
// Architecture:
// - Every object lives in a single B-tree mapping path key → node
// - Keys are /-separated, without leading or trailing separators, and
//   the empty key is the root directory
// - Ordered keys make directory listing a prefix range scan (O(log n))
// - Symlinks are nodes carrying a target path, resolved during walks
//
// Absolute and relative engine paths address the same tree, so tests
// can use either form in a path pattern.
type MemoryFilesystem struct {
	mu    sync.RWMutex
	paths *btree.Map[string, *node]
}

type node struct {
	id      string
	name    string
	dir     bool
	link    string
	data    []byte
	modTime time.Time
}

// New creates an empty MemoryFilesystem with just the root directory.
func New() *MemoryFilesystem {
	m := &MemoryFilesystem{
		paths: btree.NewMap[string, *node](0), // degree 0 = auto-optimize
	}

	m.paths.Set("", &node{
		id:      uuid.Must(uuid.NewV7()).String(),
		name:    "",
		dir:     true,
		modTime: time.Now(),
	})

	return m
}

// MkdirAll creates a directory at path along with any missing parents.
// Returns ErrNotDirectory if a prefix of the path names a file.
func (m *MemoryFilesystem) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return nil
	}

	cur := ""
	for _, name := range strings.Split(key, "/") {
		cur = joinKey(cur, name)

		if existing, ok := m.paths.Get(cur); ok {
			if !existing.dir {
				return fs.ErrNotDirectory
			}
			continue
		}

		m.paths.Set(cur, &node{
			id:      uuid.Must(uuid.NewV7()).String(),
			name:    name,
			dir:     true,
			modTime: time.Now(),
		})
	}

	return nil
}

// WriteFile creates or replaces a file at path. The parent directory
// must already exist.
func (m *MemoryFilesystem) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return fs.ErrIsDirectory
	}

	if err := m.checkParent(key); err != nil {
		return err
	}

	if existing, ok := m.paths.Get(key); ok && existing.dir {
		return fs.ErrIsDirectory
	}

	m.paths.Set(key, &node{
		id:      uuid.Must(uuid.NewV7()).String(),
		name:    baseKey(key),
		data:    data,
		modTime: time.Now(),
	})

	return nil
}

// Symlink creates a symbolic link at path pointing at target. Relative
// targets resolve against the link's parent directory.
func (m *MemoryFilesystem) Symlink(target, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return fs.ErrIsDirectory
	}

	if err := m.checkParent(key); err != nil {
		return err
	}

	if _, ok := m.paths.Get(key); ok {
		return fs.ErrExist
	}

	m.paths.Set(key, &node{
		id:      uuid.Must(uuid.NewV7()).String(),
		name:    baseKey(key),
		link:    target,
		modTime: time.Now(),
	})

	return nil
}

// Stat returns information about the object at path, following symlinks.
func (m *MemoryFilesystem) Stat(ctx context.Context, path string) (*fs.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, n, err := m.walk(normalize(path), true)
	if err != nil {
		return nil, err
	}

	return n.toInfo(path), nil
}

// Lstat returns information about the object at path without following
// a final symlink.
func (m *MemoryFilesystem) Lstat(ctx context.Context, path string) (*fs.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, n, err := m.walk(normalize(path), false)
	if err != nil {
		return nil, err
	}

	return n.toInfo(path), nil
}

// OpenDir lists the directory at path, following symlinks, and returns
// a cursor over its direct children in key order.
func (m *MemoryFilesystem) OpenDir(ctx context.Context, path string) (fs.Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	key, n, err := m.walk(normalize(path), true)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, fs.ErrNotDirectory
	}

	prefix := key
	if prefix != "" {
		prefix += "/"
	}

	var entries []fs.Entry
	m.paths.Ascend(prefix, func(childKey string, child *node) bool {
		if !strings.HasPrefix(childKey, prefix) {
			return false
		}

		rel := childKey[len(prefix):]
		if rel == "" || strings.ContainsRune(rel, '/') {
			return true
		}

		entries = append(entries, fs.Entry{Name: rel, Type: child.entryType()})
		return true
	})

	return fs.NewSliceDir(entries), nil
}

// Canonical resolves path, following symlinks, to its tree key.
func (m *MemoryFilesystem) Canonical(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	key, _, err := m.walk(normalize(path), true)
	if err != nil {
		return "", err
	}

	return "/" + key, nil
}

// CaseInsensitive always reports false; keys are matched byte-exact.
func (m *MemoryFilesystem) CaseInsensitive() bool {
	return false
}

// walk resolves a normalized key component by component, splicing in
// symlink targets as it goes. Callers must hold at least a read lock.
func (m *MemoryFilesystem) walk(key string, followLast bool) (string, *node, error) {
	var rem []string
	if key != "" {
		rem = strings.Split(key, "/")
	}

	cur := ""
	hops := 0
	for len(rem) > 0 {
		name := rem[0]
		rem = rem[1:]

		switch name {
		case "", ".":
			continue
		case "..":
			cur = parentKey(cur)
			continue
		}

		next := joinKey(cur, name)
		n, ok := m.paths.Get(next)
		if !ok {
			return "", nil, fs.ErrNotExist
		}

		if n.link != "" && (len(rem) > 0 || followLast) {
			hops++
			if hops > maxLinkHops {
				return "", nil, fs.ErrNotExist
			}

			target := n.link
			if strings.HasPrefix(target, "/") {
				cur = ""
				target = strings.TrimPrefix(target, "/")
			}
			if target != "" {
				rem = append(strings.Split(target, "/"), rem...)
			}
			continue
		}

		cur = next
	}

	n, ok := m.paths.Get(cur)
	if !ok {
		return "", nil, fs.ErrNotExist
	}

	return cur, n, nil
}

// checkParent verifies that the parent of key exists and is a directory.
func (m *MemoryFilesystem) checkParent(key string) error {
	parent := parentKey(key)
	n, ok := m.paths.Get(parent)
	if !ok {
		return fs.ErrNotExist
	}
	if !n.dir {
		return fs.ErrNotDirectory
	}
	return nil
}

func (n *node) entryType() fs.EntryType {
	switch {
	case n.link != "":
		return fs.EntryTypeSymlink
	case n.dir:
		return fs.EntryTypeDirectory
	default:
		return fs.EntryTypeFile
	}
}

func (n *node) toInfo(path string) *fs.Info {
	return &fs.Info{
		Name:    n.name,
		Path:    path,
		Size:    int64(len(n.data)),
		IsDir:   n.dir,
		ModTime: n.modTime,
	}
}

// normalize converts an engine path to a tree key: no leading or
// trailing separator, empty for the root.
func normalize(path string) string {
	return strings.Trim(path, "/")
}

func joinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func parentKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return ""
}

func baseKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
