package wildcard

import (
	"regexp"

	"github.com/mwantia/wildcard/fs"
)

// frameState tags the kind of a suspended frame.
type frameState int

const (
	// stateStep consumes the head of the remaining components, or tests
	// the built path as a candidate when none remain.
	stateStep frameState = iota
	// stateWildcard holds an open cursor and matches entries against a
	// component glob, one per resumption.
	stateWildcard
	// stateEllipsis holds the sweep of a recursive ellipsis over one
	// directory. The cursor opens lazily on first resumption, after the
	// zero-level branch has run.
	stateEllipsis
	// stateBreadth drains a queue of pending directories one full level
	// at a time.
	stateBreadth
)

func (s frameState) String() string {
	switch s {
	case stateStep:
		return "step"
	case stateWildcard:
		return "wildcard"
	case stateEllipsis:
		return "ellipsis"
	case stateBreadth:
		return "breadth"
	default:
		return "unknown"
	}
}

// frame is one suspended continuation of the traversal.
type frame struct {
	state frameState

	// path is the resulting path built so far. Directory paths end in a
	// separator and only those may be opened.
	path string
	// rem is the remaining component sequence.
	rem []component
	// sweep is rem with the ellipsis itself prepended, shared by every
	// descent an ellipsis frame pushes.
	sweep []component
	// dir is the open cursor of a wildcard or ellipsis frame. Ellipsis
	// frames leave it nil until their first resumption.
	dir fs.Dir
	// re matches one entry name, for wildcard frames.
	re *regexp.Regexp

	// canon is the canonical identity held in the visited set while an
	// ellipsis cursor is open.
	canon string

	// queue and visited serve breadth-first frames only.
	queue   []string
	visited map[string]bool
}

func (f *frame) close() error {
	if f.dir == nil {
		return nil
	}

	err := f.dir.Close()
	f.dir = nil
	return err
}

// run is one pattern being expanded: the regexp its candidates are
// tested against, the frame stack of the traversal in progress and the
// descent chain its open sweeps occupy.
type run struct {
	re    *regexp.Regexp
	stack []*frame

	// visited holds the canonical identity of every directory an open
	// ellipsis cursor of this run is inside of, when following
	// symlinks. Each run carries its own set, so base, appended and
	// prepended patterns descend independently.
	visited map[string]bool
}

// newRun builds the initial frame for the compiled pattern c. When
// match is non-nil it replaces the generated whole-path regexp.
func newRun(c *compiled, match *regexp.Regexp) *run {
	re := c.re
	if match != nil {
		re = match
	}

	root := ""
	if c.absolute {
		root = "/"
	}

	return &run{
		re:      re,
		visited: make(map[string]bool),
		stack: []*frame{{
			state: stateStep,
			path:  root,
			rem:   c.components,
		}},
	}
}

func (r *run) push(f *frame) {
	r.stack = append(r.stack, f)
}

// top returns the active frame, nil when the run is exhausted.
func (r *run) top() *frame {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *run) pop() *frame {
	f := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return f
}

// leave removes an ellipsis frame's directory from the run's descent
// chain.
func (r *run) leave(f *frame) {
	if f.canon != "" {
		delete(r.visited, f.canon)
		f.canon = ""
	}
}

// close releases every open cursor of the run and empties its stack,
// returning the first close error.
func (r *run) close() error {
	var first error
	for _, f := range r.stack {
		r.leave(f)
		if err := f.close(); err != nil && first == nil {
			first = err
		}
	}

	r.stack = nil
	return first
}
