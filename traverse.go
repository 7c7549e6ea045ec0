package wildcard

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/mwantia/wildcard/fs"
)

// pump advances the run until a path is produced, returning it with
// true, or until the frame stack drains, returning false. Filesystem
// failures along one branch end that branch and the pump moves on;
// only context cancellation is an error.
func (w *Wildcard) pump(ctx context.Context, r *run) (string, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		f := r.top()
		if f == nil {
			return "", false, nil
		}

		switch f.state {
		case stateStep:
			if len(f.rem) == 0 {
				r.pop()
				if w.test(ctx, r, f.path) {
					return f.path, true, nil
				}
				continue
			}
			w.step(ctx, r, f)

		case stateWildcard:
			w.pullWildcard(ctx, r, f)

		case stateEllipsis:
			w.pullEllipsis(ctx, r, f)

		case stateBreadth:
			w.pullBreadth(ctx, r, f)
		}
	}
}

// step consumes the head component of the top frame. Literals extend
// the path in place; wildcards and ellipses replace the frame with
// their own kind.
func (w *Wildcard) step(ctx context.Context, r *run, f *frame) {
	head := f.rem[0]
	rest := f.rem[1:]

	switch head.kind {
	case componentLiteral:
		f.path += head.text
		if len(rest) > 0 {
			f.path += "/"
		}
		f.rem = rest

	case componentWildcard:
		r.pop()
		w.openWildcard(ctx, r, f.path, head, rest)

	case componentEllipsis:
		r.pop()
		w.openEllipsis(r, f.path, rest)
	}
}

// test reports whether path is a result: it must match the active
// regexp, escape the exclusion and exist.
func (w *Wildcard) test(ctx context.Context, r *run, path string) bool {
	if !r.re.MatchString(path) {
		return false
	}
	if w.excluded(path) {
		return false
	}

	var err error
	if w.follow {
		_, err = w.fsys.Stat(ctx, path)
	} else {
		_, err = w.fsys.Lstat(ctx, path)
	}
	if err != nil {
		w.log.Debug("Dropping %q: %v", path, err)
		return false
	}

	return true
}

// openWildcard opens the directory at base and pushes a wildcard frame
// matching its entries against head. An unopenable base ends the
// branch.
func (w *Wildcard) openWildcard(ctx context.Context, r *run, base string, head component, rest []component) {
	if !canOpen(base) || w.excluded(base) {
		return
	}

	d, err := w.fsys.OpenDir(ctx, base)
	if err != nil {
		w.log.Debug("Skipping %q: %v", base, err)
		return
	}
	if w.sortOn {
		d = w.sorted(ctx, base, d)
	}

	w.log.Debug("Matching %q in %q", head.text, base)
	r.push(&frame{
		state: stateWildcard,
		path:  base,
		rem:   rest,
		dir:   d,
		re:    head.re,
	})
}

// openEllipsis pushes the frames expanding an ellipsis at base. The
// order option decides whether the zero-level branch runs before the
// sweep, after it, or via a level queue.
func (w *Wildcard) openEllipsis(r *run, base string, rest []component) {
	switch w.order {
	case OrderInsideOut:
		r.push(&frame{state: stateStep, path: base, rem: rest})
		r.push(&frame{state: stateEllipsis, path: base, rem: rest})

	case OrderBreadthFirst:
		r.push(&frame{state: stateBreadth, path: base, rem: rest, queue: []string{base}})
		if len(rest) > 0 {
			r.push(&frame{state: stateStep, path: base, rem: rest})
		}

	default:
		r.push(&frame{state: stateEllipsis, path: base, rem: rest})
		r.push(&frame{state: stateStep, path: base, rem: rest})
	}
}

// pullWildcard advances an open wildcard cursor by one entry, pushing a
// step frame for each name the component glob accepts.
func (w *Wildcard) pullWildcard(ctx context.Context, r *run, f *frame) {
	entry, err := f.dir.Next(ctx)
	if err != nil {
		if err != io.EOF {
			w.log.Debug("Cursor on %q ended: %v", f.path, err)
		}
		f.close()
		r.pop()
		return
	}

	if entry.Name == "." || entry.Name == ".." {
		return
	}
	if !f.re.MatchString(entry.Name) {
		return
	}

	child := f.path + entry.Name
	dir := w.entryIsDir(ctx, entry, child)

	if len(f.rem) == 0 {
		if dir {
			child += "/"
		}
		r.push(&frame{state: stateStep, path: child})
		return
	}

	if !dir {
		return
	}
	child += "/"
	if w.excluded(child) {
		return
	}

	r.push(&frame{state: stateStep, path: child, rem: f.rem})
}

// pullEllipsis runs the sweep of an ellipsis frame. The first
// resumption opens the directory, after the zero-level branch has run;
// each later one descends into a single entry, re-expanding the
// ellipsis below it.
func (w *Wildcard) pullEllipsis(ctx context.Context, r *run, f *frame) {
	if f.dir == nil {
		if !w.openSweep(ctx, r, f) {
			r.pop()
		}
		return
	}

	entry, err := f.dir.Next(ctx)
	if err != nil {
		if err != io.EOF {
			w.log.Debug("Cursor on %q ended: %v", f.path, err)
		}
		f.close()
		r.leave(f)
		r.pop()
		return
	}

	if entry.Name == "." || entry.Name == ".." {
		return
	}

	child := f.path + entry.Name
	if w.entryIsDir(ctx, entry, child) {
		child += "/"
	}
	if w.excluded(child) {
		return
	}

	r.push(&frame{state: stateStep, path: child, rem: f.sweep})
}

// openSweep attaches the directory cursor to an ellipsis frame,
// reporting false when the branch is done instead: unopenable bases,
// pruned paths and directories already on the active descent chain all
// end it silently.
func (w *Wildcard) openSweep(ctx context.Context, r *run, f *frame) bool {
	if !canOpen(f.path) || w.excluded(f.path) {
		return false
	}

	canon := ""
	if w.follow {
		canon = w.canonical(ctx, f.path)
		if r.visited[canon] {
			w.log.Debug("Already descending through %q", canon)
			return false
		}
	}

	d, err := w.fsys.OpenDir(ctx, f.path)
	if err != nil {
		w.log.Debug("Skipping %q: %v", f.path, err)
		return false
	}
	if w.sortOn {
		d = w.sorted(ctx, f.path, d)
	}

	w.log.Debug("Sweeping %q", f.path)
	f.dir = d
	f.sweep = append([]component{{kind: componentEllipsis}}, f.rem...)
	if w.follow {
		r.visited[canon] = true
		f.canon = canon
	}

	return true
}

// pullBreadth drains one pending directory of a breadth-first frame,
// pushing its entries as candidates or remainder tests and queueing its
// subdirectories for the next level.
func (w *Wildcard) pullBreadth(ctx context.Context, r *run, f *frame) {
	if len(f.queue) == 0 {
		r.pop()
		return
	}

	base := f.queue[0]
	f.queue = f.queue[1:]

	if w.follow {
		canon := w.canonical(ctx, base)
		if f.visited[canon] {
			return
		}
		if f.visited == nil {
			f.visited = make(map[string]bool)
		}
		f.visited[canon] = true
	}

	d, err := w.fsys.OpenDir(ctx, base)
	if err != nil {
		w.log.Debug("Skipping %q: %v", base, err)
		return
	}
	entries, err := drainDir(ctx, d)
	d.Close()
	if err != nil {
		w.log.Debug("Cursor on %q ended: %v", base, err)
	}
	if w.sortOn {
		w.sortEntries(base, entries)
	}

	type item struct {
		path string
		dir  bool
	}
	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}

		child := base + entry.Name
		dir := w.entryIsDir(ctx, entry, child)
		if dir {
			child += "/"
		}
		if w.excluded(child) {
			continue
		}

		if dir {
			f.queue = append(f.queue, child)
		}
		items = append(items, item{path: child, dir: dir})
	}

	// Pushed in reverse so the level pops in entry order
	for i := len(items) - 1; i >= 0; i-- {
		switch {
		case len(f.rem) == 0:
			r.push(&frame{state: stateStep, path: items[i].path})
		case items[i].dir:
			r.push(&frame{state: stateStep, path: items[i].path, rem: f.rem})
		}
	}
}

// entryIsDir reports whether entry can be descended into. Symlinks
// count only when following, and only when their target is a directory.
func (w *Wildcard) entryIsDir(ctx context.Context, entry fs.Entry, path string) bool {
	switch entry.Type {
	case fs.EntryTypeDirectory:
		return true
	case fs.EntryTypeSymlink:
		if !w.follow {
			return false
		}
		info, err := w.fsys.Stat(ctx, path)
		return err == nil && info.IsDir
	default:
		return false
	}
}

// canonical resolves the identity used for cycle checks, falling back
// to the path itself when the provider cannot resolve it.
func (w *Wildcard) canonical(ctx context.Context, path string) string {
	canon, err := w.fsys.Canonical(ctx, path)
	if err != nil {
		return path
	}
	return canon
}

// sorted replaces a live cursor with one over the same entries in
// comparator order.
func (w *Wildcard) sorted(ctx context.Context, base string, d fs.Dir) fs.Dir {
	entries, err := drainDir(ctx, d)
	d.Close()
	if err != nil {
		w.log.Debug("Cursor on %q ended: %v", base, err)
	}

	w.sortEntries(base, entries)
	return fs.NewSliceDir(entries)
}

func (w *Wildcard) sortEntries(base string, entries []fs.Entry) {
	cmp := w.sortFunc
	if cmp == nil {
		if w.fold {
			cmp = func(a, b string) int {
				return strings.Compare(strings.ToLower(a), strings.ToLower(b))
			}
		} else {
			cmp = strings.Compare
		}
	}

	slices.SortStableFunc(entries, func(a, b fs.Entry) int {
		return cmp(base+a.Name, base+b.Name)
	})
}

func drainDir(ctx context.Context, d fs.Dir) ([]fs.Entry, error) {
	var entries []fs.Entry
	for {
		entry, err := d.Next(ctx)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

func (w *Wildcard) excluded(path string) bool {
	return w.exclude != nil && w.exclude.MatchString(path)
}

// canOpen reports whether path designates a directory that may be
// opened: the working directory, the root, or any path ending in a
// separator.
func canOpen(path string) bool {
	return path == "" || strings.HasSuffix(path, "/")
}
