// Package wildcard expands extended wildcard path patterns into the
// matching paths of a filesystem, one result per call.
//
// A pattern is a separator-joined sequence of components. Within one
// component `*` matches any run of characters short of a separator, a
// run of `?` matches exactly that many characters and a parenthesized
// span is honored as a user-authored capture group. A doubled or
// tripled separator, as in "src///*.go", matches zero or more nested
// directories. Matched groups can derive sibling paths, so the matches
// of "src/*.cpp" can each carry "src/$1.o" alongside.
//
// Expansion is lazy. Directory cursors stay open between calls to Next
// and nothing is read ahead of the next result, so an expansion may be
// abandoned cheaply at any point with Close.
package wildcard

import (
	"context"
	"regexp"
	"slices"

	"github.com/google/uuid"
	"github.com/mwantia/wildcard/fs"
	"github.com/mwantia/wildcard/fs/local"
	"github.com/mwantia/wildcard/log"
)

// Result pairs one matched path with the paths derived from its capture
// groups, in template order.
type Result struct {
	Path    string
	Derived []string
}

// Wildcard is one expansion in progress. It is owned by a single
// goroutine; Next, Append, Prepend and the accessors must not be called
// concurrently.
type Wildcard struct {
	id   string
	fsys fs.Filesystem
	log  *log.Logger

	fold     bool
	follow   bool
	sortOn   bool
	sortFunc func(a, b string) int
	exclude  *regexp.Regexp
	order    EllipsisOrder

	base      *compiled
	baseMatch *regexp.Regexp
	templates []template

	cur       *run
	prepended []*run
	appended  []*run

	finished bool
	err      error
	path     string
	derived  []string
}

// New compiles a pattern into an expansion. Construction fails on a
// missing or conflicting pattern, on pre-split parts without
// WithAbsolute and on a pattern that does not translate into a valid
// regexp.
func New(options ...Option) (*Wildcard, error) {
	opts := newDefaultOptions()
	for _, option := range options {
		if err := option(opts); err != nil {
			return nil, err
		}
	}

	if opts.Path != "" && opts.HasParts {
		return nil, ErrConflictingPath
	}
	if opts.Path == "" && !opts.HasParts {
		return nil, ErrNoPath
	}
	if opts.HasParts && !opts.HasAbsolute {
		return nil, ErrAmbiguousParts
	}

	fsys := opts.Filesystem
	if fsys == nil {
		fsys = local.New("")
	}

	fold := opts.CaseFold
	if !opts.HasCaseFold {
		fold = fsys.CaseInsensitive()
	}

	var base *compiled
	var err error
	if opts.HasParts {
		base, err = compileParts(opts.Parts, opts.Absolute, fold)
	} else {
		base, err = compilePattern(opts.Path, fold)
	}
	if err != nil {
		return nil, err
	}

	templates := make([]template, 0, len(opts.Derive))
	for _, text := range opts.Derive {
		templates = append(templates, parseTemplate(text))
	}

	w := &Wildcard{
		id:        uuid.Must(uuid.NewV7()).String(),
		fsys:      fsys,
		log:       log.NewLogger("wildcard", opts.LogLevel, opts.LogFile, opts.NoTerminalLog),
		fold:      fold,
		follow:    opts.Follow,
		sortOn:    opts.Sort,
		sortFunc:  opts.SortFunc,
		exclude:   opts.Exclude,
		order:     opts.Order,
		base:      base,
		baseMatch: opts.Match,
		templates: templates,
		cur:       newRun(base, opts.Match),
	}

	w.log.Debug("Created expansion %s matching %q", w.id, w.cur.re)
	return w, nil
}

// Next advances the expansion to its next result, reporting whether one
// was produced. After a false report, Err separates natural exhaustion
// from a failure; exhaustion persists until Reset.
func (w *Wildcard) Next(ctx context.Context) bool {
	if w.finished || w.err != nil {
		return false
	}

	for {
		if w.cur == nil {
			if n := len(w.prepended); n > 0 {
				w.cur = w.prepended[n-1]
				w.prepended = w.prepended[:n-1]
				continue
			}
			if len(w.appended) > 0 {
				w.cur = w.appended[0]
				w.appended = w.appended[1:]
				continue
			}
			w.finished = true
			return false
		}

		path, ok, err := w.pump(ctx, w.cur)
		if err != nil {
			w.err = err
			return false
		}
		if !ok {
			w.cur = nil
			continue
		}

		derived, err := deriveAll(path, w.cur.re, w.templates)
		if err != nil {
			w.err = err
			return false
		}

		w.path = path
		w.derived = derived
		return true
	}
}

// Path returns the result staged by the last successful Next.
func (w *Wildcard) Path() string {
	return w.path
}

// Derived returns the sibling paths derived for the result staged by
// the last successful Next, in template order. Derived paths are not
// checked for existence.
func (w *Wildcard) Derived() []string {
	return w.derived
}

// Err returns the error that ended the expansion, if any. A fully
// drained expansion reports nil.
func (w *Wildcard) Err() error {
	return w.err
}

// All drains the expansion and collects every remaining result.
func (w *Wildcard) All(ctx context.Context) ([]Result, error) {
	var results []Result
	for w.Next(ctx) {
		results = append(results, Result{
			Path:    w.path,
			Derived: slices.Clone(w.derived),
		})
	}

	return results, w.err
}

// Append queues pattern to be expanded after the current pattern and
// every previously appended one have drained. Appending to an already
// exhausted expansion validates pattern and discards it.
func (w *Wildcard) Append(pattern string) error {
	c, err := compilePattern(pattern, w.fold)
	if err != nil {
		return err
	}
	if w.finished {
		return nil
	}

	w.log.Debug("Expansion %s appending %q", w.id, pattern)
	w.appended = append(w.appended, newRun(c, nil))
	return nil
}

// Prepend interrupts the current traversal and begins expanding
// pattern immediately. When pattern drains, the interrupted traversal
// resumes exactly where it stopped; nested prepends resume newest
// first.
func (w *Wildcard) Prepend(pattern string) error {
	c, err := compilePattern(pattern, w.fold)
	if err != nil {
		return err
	}
	if w.finished {
		return nil
	}

	w.log.Debug("Expansion %s prepending %q", w.id, pattern)
	if w.cur != nil {
		w.prepended = append(w.prepended, w.cur)
	}
	w.cur = newRun(c, nil)
	return nil
}

// Match returns the regexp results are currently tested against.
func (w *Wildcard) Match() *regexp.Regexp {
	if w.cur != nil {
		return w.cur.re
	}
	if w.baseMatch != nil {
		return w.baseMatch
	}
	return w.base.re
}

// SetMatch replaces the regexp for the expansion in progress. Capture
// groups of re feed any derivation templates from here on; templates
// are re-validated against it at the next result. Reset restores the
// construction-time regexp.
func (w *Wildcard) SetMatch(re *regexp.Regexp) {
	if w.cur != nil {
		w.cur.re = re
	}
}

// Close releases every open directory cursor and ends the expansion.
// Next reports false from here on, without error, until Reset.
func (w *Wildcard) Close() error {
	var first error
	for _, r := range w.allRuns() {
		if err := r.close(); err != nil && first == nil {
			first = err
		}
	}

	w.cur = nil
	w.prepended = nil
	w.appended = nil
	w.finished = true
	return first
}

// Reset closes the expansion and starts it over from the construction
// time pattern, discarding all append and prepend history along with
// any deferred error.
func (w *Wildcard) Reset() error {
	err := w.Close()

	w.cur = newRun(w.base, w.baseMatch)
	w.finished = false
	w.err = nil
	w.path = ""
	w.derived = nil
	return err
}

func (w *Wildcard) allRuns() []*run {
	var runs []*run
	if w.cur != nil {
		runs = append(runs, w.cur)
	}
	runs = append(runs, w.prepended...)
	runs = append(runs, w.appended...)
	return runs
}
