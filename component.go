package wildcard

import "regexp"

// componentKind classifies one component of a split pattern.
type componentKind int

const (
	// componentLiteral matches exactly one directory entry by name.
	componentLiteral componentKind = iota
	// componentWildcard matches directory entries against a glob.
	componentWildcard
	// componentEllipsis matches any number of intervening directories,
	// including none.
	componentEllipsis
)

func (k componentKind) String() string {
	switch k {
	case componentLiteral:
		return "literal"
	case componentWildcard:
		return "wildcard"
	case componentEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// component is one step of a compiled pattern.
type component struct {
	kind componentKind
	// text is the original component as written, empty for an ellipsis.
	text string
	// frag is the fragment this component contributes to the whole-path
	// regexp, without separators.
	frag string
	// re matches a single entry name, compiled for wildcard components
	// only.
	re *regexp.Regexp
}
