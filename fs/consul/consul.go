// Package consul implements the provider interface on the Consul KV
// store, for expanding path patterns against shared state.
package consul

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/wildcard/fs"
)

// Config holds the connection settings for a Consul-backed filesystem.
type Config struct {
	// Address of the Consul agent, e.g. "localhost:8500"
	Address string
	// Token used for ACL authentication (optional)
	Token string
	// Datacenter to query (optional, defaults to agent datacenter)
	Datacenter string
	// Namespace for Consul Enterprise (optional)
	Namespace string
	// Prefix under which all keys are stored (optional)
	Prefix string
}

// ConsulFilesystem maps the KV store onto a directory tree.
//
// Architecture:
// - Every KV pair is a file; its value is the file content
// - Directories are virtual and exist whenever keys live below them
// - A key with a trailing separator acts as an explicit directory marker
// - Listing uses delimiter queries so only direct children transfer
type ConsulFilesystem struct {
	kv     *api.KV
	prefix string
}

// New creates a Consul-backed filesystem from cfg.
func New(cfg Config) (*ConsulFilesystem, error) {
	config := api.DefaultConfig()
	if cfg.Address != "" {
		config.Address = cfg.Address
	}
	if cfg.Token != "" {
		config.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		config.Datacenter = cfg.Datacenter
	}
	if cfg.Namespace != "" {
		config.Namespace = cfg.Namespace
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulFilesystem{
		kv:     client.KV(),
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Put writes value under path, creating or replacing the file.
func (cfs *ConsulFilesystem) Put(ctx context.Context, path string, value []byte) error {
	key := cfs.fullKey(normalize(path))
	if key == "" {
		return fs.ErrIsDirectory
	}

	_, err := cfs.kv.Put(&api.KVPair{Key: key, Value: value}, writeOptions(ctx))
	return err
}

// MkdirAll writes an explicit directory marker at path. Intermediate
// directories need no markers; they exist by virtue of keys below them.
func (cfs *ConsulFilesystem) MkdirAll(ctx context.Context, path string) error {
	key := cfs.fullKey(normalize(path))
	if key == "" {
		return nil
	}

	_, err := cfs.kv.Put(&api.KVPair{Key: key + "/"}, writeOptions(ctx))
	return err
}

// Stat returns information about the object at path.
func (cfs *ConsulFilesystem) Stat(ctx context.Context, path string) (*fs.Info, error) {
	key := normalize(path)
	if key == "" {
		return &fs.Info{Path: path, IsDir: true}, nil
	}

	full := cfs.fullKey(key)
	pair, _, err := cfs.kv.Get(full, queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if pair != nil {
		return &fs.Info{
			Name: baseKey(key),
			Path: path,
			Size: int64(len(pair.Value)),
		}, nil
	}

	// No file at this key; it is a directory if anything lives below it
	keys, _, err := cfs.kv.Keys(full+"/", "", queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fs.ErrNotExist
	}

	return &fs.Info{
		Name:  baseKey(key),
		Path:  path,
		IsDir: true,
	}, nil
}

// Lstat is identical to Stat; the KV store has no symlinks.
func (cfs *ConsulFilesystem) Lstat(ctx context.Context, path string) (*fs.Info, error) {
	return cfs.Stat(ctx, path)
}

// OpenDir lists the directory at path and returns a cursor over its
// direct children in key order.
func (cfs *ConsulFilesystem) OpenDir(ctx context.Context, path string) (fs.Dir, error) {
	key := normalize(path)

	lp := cfs.fullKey(key)
	if lp != "" {
		lp += "/"
	}

	keys, _, err := cfs.kv.Keys(lp, "/", queryOptions(ctx))
	if err != nil {
		return nil, err
	}

	var entries []fs.Entry
	for _, k := range keys {
		rel := strings.TrimPrefix(k, lp)
		if rel == "" {
			// Explicit marker for the directory itself
			continue
		}
		if strings.HasSuffix(rel, "/") {
			entries = append(entries, fs.Entry{
				Name: strings.TrimSuffix(rel, "/"),
				Type: fs.EntryTypeDirectory,
			})
			continue
		}
		entries = append(entries, fs.Entry{Name: rel, Type: fs.EntryTypeFile})
	}

	if len(entries) == 0 && key != "" {
		info, err := cfs.Stat(ctx, path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			return nil, fs.ErrNotDirectory
		}
	}

	return fs.NewSliceDir(entries), nil
}

// Canonical verifies path exists and returns its cleaned form.
func (cfs *ConsulFilesystem) Canonical(ctx context.Context, path string) (string, error) {
	if _, err := cfs.Stat(ctx, path); err != nil {
		return "", err
	}

	return "/" + normalize(path), nil
}

// CaseInsensitive always reports false; keys are matched byte-exact.
func (cfs *ConsulFilesystem) CaseInsensitive() bool {
	return false
}

func (cfs *ConsulFilesystem) fullKey(key string) string {
	if cfs.prefix == "" {
		return key
	}
	if key == "" {
		return cfs.prefix
	}
	return cfs.prefix + "/" + key
}

func queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}

func normalize(path string) string {
	return strings.Trim(path, "/")
}

func baseKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
