package fs

import (
	"context"
	"io"
)

// SliceDir is a Dir cursor backed by a pre-read entry slice. Providers
// that list directories in one shot wrap their results in a SliceDir,
// and the engine uses it to re-order entries under the sort policy.
type SliceDir struct {
	entries []Entry
	pos     int
	closed  bool
}

func NewSliceDir(entries []Entry) *SliceDir {
	return &SliceDir{entries: entries}
}

func (d *SliceDir) Next(ctx context.Context) (Entry, error) {
	if d.closed {
		return Entry{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if d.pos >= len(d.entries) {
		return Entry{}, io.EOF
	}

	ent := d.entries[d.pos]
	d.pos++
	return ent, nil
}

func (d *SliceDir) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.entries = nil
	return nil
}
