package wildcard

import (
	"regexp"

	"github.com/mwantia/wildcard/fs"
	"github.com/mwantia/wildcard/log"
)

type Options struct {
	Path        string
	Parts       []string
	HasParts    bool
	Absolute    bool
	HasAbsolute bool

	Match  *regexp.Regexp
	Derive []string

	CaseFold    bool
	HasCaseFold bool
	Follow      bool
	Exclude     *regexp.Regexp
	Order       EllipsisOrder

	Sort     bool
	SortFunc func(a, b string) int

	Filesystem fs.Filesystem

	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		Order:    OrderNormal,
		LogLevel: log.Info,
	}
}

// WithPath sets the pattern to expand, as a single string with
// separator-joined components.
func WithPath(path string) Option {
	return func(opts *Options) error {
		opts.Path = path
		return nil
	}
}

// WithParts sets the pattern to expand as pre-split components.
// An empty component stands for a recursive ellipsis. Requires
// WithAbsolute to settle how the components anchor.
func WithParts(parts ...string) Option {
	return func(opts *Options) error {
		opts.Parts = parts
		opts.HasParts = true
		return nil
	}
}

// WithAbsolute marks pre-split components as anchored at the root.
// Ignored when the pattern is given with WithPath, where the leading
// separator already decides anchoring.
func WithAbsolute(absolute bool) Option {
	return func(opts *Options) error {
		opts.Absolute = absolute
		opts.HasAbsolute = true
		return nil
	}
}

// WithMatch replaces the generated whole-path regexp with re. Capture
// groups in re feed derivation templates.
func WithMatch(re *regexp.Regexp) Option {
	return func(opts *Options) error {
		opts.Match = re
		return nil
	}
}

// WithDerive adds templates expanded against the capture groups of each
// match. $1, $2 and so on substitute the group text; a relative result
// is joined next to the matched path.
func WithDerive(templates ...string) Option {
	return func(opts *Options) error {
		opts.Derive = append(opts.Derive, templates...)
		return nil
	}
}

// WithFollow makes expansion follow symbolic links when descending and
// when testing candidates.
func WithFollow() Option {
	return func(opts *Options) error {
		opts.Follow = true
		return nil
	}
}

// WithCaseInsensitive forces case-insensitive matching regardless of
// what the filesystem reports.
func WithCaseInsensitive() Option {
	return func(opts *Options) error {
		opts.CaseFold = true
		opts.HasCaseFold = true
		return nil
	}
}

// WithCaseSensitive forces case-sensitive matching regardless of what
// the filesystem reports.
func WithCaseSensitive() Option {
	return func(opts *Options) error {
		opts.CaseFold = false
		opts.HasCaseFold = true
		return nil
	}
}

// WithExclude skips any candidate or descent whose path matches re.
func WithExclude(re *regexp.Regexp) Option {
	return func(opts *Options) error {
		opts.Exclude = re
		return nil
	}
}

// WithEllipsisOrder controls the order in which a recursive ellipsis
// visits directories relative to their contents.
func WithEllipsisOrder(order EllipsisOrder) Option {
	return func(opts *Options) error {
		opts.Order = order
		return nil
	}
}

// WithSort yields the matches of each wildcard component in sorted
// order instead of directory order.
func WithSort() Option {
	return func(opts *Options) error {
		opts.Sort = true
		return nil
	}
}

// WithSortFunc sorts the matches of each wildcard component with cmp,
// which compares full candidate paths and reports -1, 0 or 1.
func WithSortFunc(cmp func(a, b string) int) Option {
	return func(opts *Options) error {
		opts.Sort = true
		opts.SortFunc = cmp
		return nil
	}
}

// WithFilesystem expands against fsys instead of the local filesystem.
func WithFilesystem(fsys fs.Filesystem) Option {
	return func(opts *Options) error {
		opts.Filesystem = fsys
		return nil
	}
}

func WithLogLevel(logLevel log.LogLevel) Option {
	return func(opts *Options) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithLogFile(logFile string) Option {
	return func(opts *Options) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithoutTerminalLog() Option {
	return func(opts *Options) error {
		opts.NoTerminalLog = true
		return nil
	}
}
