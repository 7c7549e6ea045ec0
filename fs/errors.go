package fs

import "errors"

// Standard errors that Filesystem implementations should use.
var (
	ErrNotExist     = errors.New("fs: entry does not exist")
	ErrExist        = errors.New("fs: entry already exists")
	ErrNotDirectory = errors.New("fs: not a directory")
	ErrIsDirectory  = errors.New("fs: is a directory")
	ErrPermission   = errors.New("fs: permission denied")
	ErrClosed       = errors.New("fs: cursor already closed")
)
