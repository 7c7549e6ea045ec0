// Package sqlite implements the provider interface on a SQLite
// database, so path patterns can be expanded against a tree persisted
// outside the process.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/wildcard/fs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const maxLinkHops = 16

// SqliteFilesystem stores one row per tree object.
//
// Architecture:
// - wildcard_nodes holds path, parent and name for every object
// - Directory listing is a single indexed query on the parent column
// - Symlinks store their target and are resolved during walks
// - The root directory is synthesized, never stored
type SqliteFilesystem struct {
	mu sync.RWMutex
	db *sql.DB
}

// New creates a SQLite-backed filesystem. The dbPath can be ":memory:"
// for an in-memory database or a file path.
func New(dbPath string) (*SqliteFilesystem, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	sfs := &SqliteFilesystem{db: db}

	if err := sfs.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return sfs, nil
}

// initSchema creates the database schema.
func (sfs *SqliteFilesystem) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wildcard_nodes (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		parent TEXT NOT NULL,
		name TEXT NOT NULL,
		is_dir INTEGER NOT NULL DEFAULT 0,
		link_target TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		modify_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_wildcard_nodes_parent ON wildcard_nodes(parent);
	`

	_, err := sfs.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (sfs *SqliteFilesystem) Close() error {
	sfs.mu.Lock()
	defer sfs.mu.Unlock()

	return sfs.db.Close()
}

// MkdirAll creates a directory at path along with any missing parents.
func (sfs *SqliteFilesystem) MkdirAll(ctx context.Context, path string) error {
	sfs.mu.Lock()
	defer sfs.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return nil
	}

	cur := ""
	for _, name := range strings.Split(key, "/") {
		parent := cur
		cur = joinKey(cur, name)

		n, err := sfs.getNode(ctx, cur)
		if err == nil {
			if !n.dir {
				return fs.ErrNotDirectory
			}
			continue
		}
		if err != fs.ErrNotExist {
			return err
		}

		if err := sfs.insertNode(ctx, cur, parent, name, true, "", 0); err != nil {
			return err
		}
	}

	return nil
}

// WriteFile creates or replaces a file at path. The parent directory
// must already exist.
func (sfs *SqliteFilesystem) WriteFile(ctx context.Context, path string, size int64) error {
	sfs.mu.Lock()
	defer sfs.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return fs.ErrIsDirectory
	}

	if err := sfs.checkParent(ctx, key); err != nil {
		return err
	}

	if n, err := sfs.getNode(ctx, key); err == nil {
		if n.dir {
			return fs.ErrIsDirectory
		}
		_, err := sfs.db.ExecContext(ctx,
			"UPDATE wildcard_nodes SET size = ?, modify_time = ? WHERE path = ?",
			size, time.Now().Unix(), key)
		return err
	}

	return sfs.insertNode(ctx, key, parentKey(key), baseKey(key), false, "", size)
}

// Symlink creates a symbolic link at path pointing at target.
func (sfs *SqliteFilesystem) Symlink(ctx context.Context, target, path string) error {
	sfs.mu.Lock()
	defer sfs.mu.Unlock()

	key := normalize(path)
	if key == "" {
		return fs.ErrIsDirectory
	}

	if err := sfs.checkParent(ctx, key); err != nil {
		return err
	}

	if _, err := sfs.getNode(ctx, key); err == nil {
		return fs.ErrExist
	}

	return sfs.insertNode(ctx, key, parentKey(key), baseKey(key), false, target, 0)
}

// Stat returns information about the object at path, following symlinks.
func (sfs *SqliteFilesystem) Stat(ctx context.Context, path string) (*fs.Info, error) {
	sfs.mu.RLock()
	defer sfs.mu.RUnlock()

	_, n, err := sfs.walk(ctx, normalize(path), true)
	if err != nil {
		return nil, err
	}

	return n.toInfo(path), nil
}

// Lstat returns information about the object at path without following
// a final symlink.
func (sfs *SqliteFilesystem) Lstat(ctx context.Context, path string) (*fs.Info, error) {
	sfs.mu.RLock()
	defer sfs.mu.RUnlock()

	_, n, err := sfs.walk(ctx, normalize(path), false)
	if err != nil {
		return nil, err
	}

	return n.toInfo(path), nil
}

// OpenDir lists the directory at path and returns a cursor over its
// direct children in name order.
func (sfs *SqliteFilesystem) OpenDir(ctx context.Context, path string) (fs.Dir, error) {
	sfs.mu.RLock()
	defer sfs.mu.RUnlock()

	key, n, err := sfs.walk(ctx, normalize(path), true)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, fs.ErrNotDirectory
	}

	rows, err := sfs.db.QueryContext(ctx,
		"SELECT name, is_dir, link_target FROM wildcard_nodes WHERE parent = ? ORDER BY name",
		key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []fs.Entry
	for rows.Next() {
		var name, link string
		var isDir bool
		if err := rows.Scan(&name, &isDir, &link); err != nil {
			return nil, err
		}
		entries = append(entries, fs.Entry{Name: name, Type: entryType(isDir, link)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fs.NewSliceDir(entries), nil
}

// Canonical resolves path, following symlinks, to its tree key.
func (sfs *SqliteFilesystem) Canonical(ctx context.Context, path string) (string, error) {
	sfs.mu.RLock()
	defer sfs.mu.RUnlock()

	key, _, err := sfs.walk(ctx, normalize(path), true)
	if err != nil {
		return "", err
	}

	return "/" + key, nil
}

// CaseInsensitive always reports false; keys are matched byte-exact.
func (sfs *SqliteFilesystem) CaseInsensitive() bool {
	return false
}

type sqliteNode struct {
	name string
	dir  bool
	link string
	size int64
	mod  int64
}

func (n *sqliteNode) toInfo(path string) *fs.Info {
	return &fs.Info{
		Name:    n.name,
		Path:    path,
		Size:    n.size,
		IsDir:   n.dir,
		ModTime: time.Unix(n.mod, 0),
	}
}

// walk resolves a normalized key component by component, splicing in
// symlink targets as it goes.
func (sfs *SqliteFilesystem) walk(ctx context.Context, key string, followLast bool) (string, *sqliteNode, error) {
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
		n, err := sfs.getNode(ctx, next)
		if err != nil {
			return "", nil, err
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

	if cur == "" {
		return "", &sqliteNode{dir: true, mod: time.Now().Unix()}, nil
	}

	n, err := sfs.getNode(ctx, cur)
	if err != nil {
		return "", nil, err
	}

	return cur, n, nil
}

func (sfs *SqliteFilesystem) getNode(ctx context.Context, key string) (*sqliteNode, error) {
	if key == "" {
		return &sqliteNode{dir: true, mod: time.Now().Unix()}, nil
	}

	n := &sqliteNode{}
	err := sfs.db.QueryRowContext(ctx,
		"SELECT name, is_dir, link_target, size, modify_time FROM wildcard_nodes WHERE path = ?",
		key).Scan(&n.name, &n.dir, &n.link, &n.size, &n.mod)
	if err == sql.ErrNoRows {
		return nil, fs.ErrNotExist
	}
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (sfs *SqliteFilesystem) insertNode(ctx context.Context, key, parent, name string, dir bool, link string, size int64) error {
	_, err := sfs.db.ExecContext(ctx,
		"INSERT INTO wildcard_nodes (id, path, parent, name, is_dir, link_target, size, modify_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		uuid.Must(uuid.NewV7()).String(), key, parent, name, dir, link, size, time.Now().Unix())
	return err
}

func (sfs *SqliteFilesystem) checkParent(ctx context.Context, key string) error {
	n, err := sfs.getNode(ctx, parentKey(key))
	if err != nil {
		return err
	}
	if !n.dir {
		return fs.ErrNotDirectory
	}
	return nil
}

func entryType(dir bool, link string) fs.EntryType {
	switch {
	case link != "":
		return fs.EntryTypeSymlink
	case dir:
		return fs.EntryTypeDirectory
	default:
		return fs.EntryTypeFile
	}
}

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
