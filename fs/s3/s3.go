// Package s3 implements the provider interface on S3-compatible object
// storage, for expanding path patterns against a bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/wildcard/fs"
)

// Config holds the connection settings for an S3-backed filesystem.
type Config struct {
	// Endpoint of the S3 service, e.g. "s3.amazonaws.com" or "localhost:9000"
	Endpoint string
	// AccessKeyID for authentication
	AccessKeyID string
	// SecretAccessKey for authentication
	SecretAccessKey string
	// UseSSL enables TLS for the connection
	UseSSL bool
	// Region of the bucket (optional)
	Region string
	// Bucket that holds the tree
	Bucket string
	// Prefix under which all objects are stored (optional)
	Prefix string
}

// S3Filesystem maps a bucket onto a directory tree.
//
// Architecture:
// - Every object is a file; its body is the file content
// - Directories are virtual and exist whenever objects live below them
// - An object with a trailing separator acts as an explicit directory marker
// - Listing uses delimiter queries so only direct children transfer
type S3Filesystem struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates an S3-backed filesystem from cfg.
func New(cfg Config) (*S3Filesystem, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Filesystem{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Put writes data under path, creating or replacing the object.
func (sfs *S3Filesystem) Put(ctx context.Context, path string, data []byte) error {
	key := sfs.fullKey(normalize(path))
	if key == "" {
		return fs.ErrIsDirectory
	}

	_, err := sfs.client.PutObject(ctx, sfs.bucket, key,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// MkdirAll writes an explicit directory marker at path. Intermediate
// directories need no markers; they exist by virtue of objects below them.
func (sfs *S3Filesystem) MkdirAll(ctx context.Context, path string) error {
	key := sfs.fullKey(normalize(path))
	if key == "" {
		return nil
	}

	_, err := sfs.client.PutObject(ctx, sfs.bucket, key+"/",
		bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	return err
}

// Stat returns information about the object at path.
func (sfs *S3Filesystem) Stat(ctx context.Context, path string) (*fs.Info, error) {
	key := normalize(path)
	if key == "" {
		return &fs.Info{Path: path, IsDir: true}, nil
	}

	full := sfs.fullKey(key)
	info, err := sfs.client.StatObject(ctx, sfs.bucket, full, minio.StatObjectOptions{})
	if err == nil {
		return &fs.Info{
			Name:    baseKey(key),
			Path:    path,
			Size:    info.Size,
			ModTime: info.LastModified,
		}, nil
	}

	errResp := minio.ToErrorResponse(err)
	if errResp.Code != "NoSuchKey" {
		return nil, err
	}

	// No object at this key; it is a directory if anything lives below it
	ok, err := sfs.hasChildren(ctx, full)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fs.ErrNotExist
	}

	return &fs.Info{
		Name:  baseKey(key),
		Path:  path,
		IsDir: true,
	}, nil
}

// Lstat is identical to Stat; object storage has no symlinks.
func (sfs *S3Filesystem) Lstat(ctx context.Context, path string) (*fs.Info, error) {
	return sfs.Stat(ctx, path)
}

// OpenDir lists the directory at path and returns a cursor over its
// direct children in key order.
func (sfs *S3Filesystem) OpenDir(ctx context.Context, path string) (fs.Dir, error) {
	key := normalize(path)

	lp := sfs.fullKey(key)
	if lp != "" {
		lp += "/"
	}

	var entries []fs.Entry
	for obj := range sfs.client.ListObjects(ctx, sfs.bucket, minio.ListObjectsOptions{
		Prefix:    lp,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}

		rel := strings.TrimPrefix(obj.Key, lp)
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
		info, err := sfs.Stat(ctx, path)
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
func (sfs *S3Filesystem) Canonical(ctx context.Context, path string) (string, error) {
	if _, err := sfs.Stat(ctx, path); err != nil {
		return "", err
	}

	return "/" + normalize(path), nil
}

// CaseInsensitive always reports false; keys are matched byte-exact.
func (sfs *S3Filesystem) CaseInsensitive() bool {
	return false
}

// hasChildren reports whether at least one object lives below key.
func (sfs *S3Filesystem) hasChildren(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range sfs.client.ListObjects(ctx, sfs.bucket, minio.ListObjectsOptions{
		Prefix:  key + "/",
		MaxKeys: 1,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}

	return false, nil
}

func (sfs *S3Filesystem) fullKey(key string) string {
	if sfs.prefix == "" {
		return key
	}
	if key == "" {
		return sfs.prefix
	}
	return sfs.prefix + "/" + key
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
