package wildcard

import (
	"fmt"
	"regexp"
	"strings"
)

// compiled is the outcome of compiling one pattern: the ordered
// component sequence driving traversal and the generated whole-path
// regexp candidates are tested against.
type compiled struct {
	components []component
	absolute   bool
	re         *regexp.Regexp
}

// compilePattern compiles a separator-joined pattern string.
func compilePattern(pattern string, fold bool) (*compiled, error) {
	if pattern == "" {
		return nil, ErrNoPath
	}

	fields := strings.Split(pattern, "/")
	absolute := false
	if fields[0] == "" {
		absolute = true
		fields = fields[1:]
	}

	return compileFields(collapseFields(fields), absolute, fold)
}

// compileParts compiles a pre-split pattern. An empty part stands
// for an ellipsis; consecutive empties collapse to one.
func compileParts(parts []string, absolute bool, fold bool) (*compiled, error) {
	return compileFields(parts, absolute, fold)
}

// collapseFields rewrites the raw split fields so that every run of
// empty fields becomes a single ellipsis marker. A trailing run of
// exactly one empty field is a plain trailing separator and is dropped.
func collapseFields(fields []string) []string {
	var out []string
	for i := 0; i < len(fields); {
		if fields[i] != "" {
			out = append(out, fields[i])
			i++
			continue
		}

		j := i
		for j < len(fields) && fields[j] == "" {
			j++
		}
		if j < len(fields) || j-i > 1 {
			out = append(out, "")
		}
		i = j
	}

	return out
}

func compileFields(fields []string, absolute bool, fold bool) (*compiled, error) {
	components := make([]component, 0, len(fields))
	for _, field := range fields {
		if field == "" {
			if len(components) > 0 && components[len(components)-1].kind == componentEllipsis {
				continue
			}
			components = append(components, component{kind: componentEllipsis})
			continue
		}

		if !strings.ContainsAny(field, "*?(") {
			components = append(components, component{
				kind: componentLiteral,
				text: field,
				frag: regexp.QuoteMeta(field),
			})
			continue
		}

		frag, err := translateGlob(field)
		if err != nil {
			return nil, err
		}

		expr := "^" + frag + "$"
		if fold {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
		}

		components = append(components, component{
			kind: componentWildcard,
			text: field,
			frag: frag,
			re:   re,
		})
	}

	re, err := buildRegexp(components, absolute, fold)
	if err != nil {
		return nil, err
	}

	return &compiled{
		components: components,
		absolute:   absolute,
		re:         re,
	}, nil
}

// translateGlob rewrites one glob component into a regexp fragment.
// `*` captures any run of characters short of a separator, a run of k
// `?` captures exactly k characters, a parenthesized span passes
// through as a user-authored group and a backslash escapes the
// following character. Everything else matches itself.
func translateGlob(glob string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			out.WriteString("([^/]*)")
		case '?':
			j := i
			for j < len(glob) && glob[j] == '?' {
				j++
			}
			out.WriteByte('(')
			out.WriteString(strings.Repeat(".", j-i))
			out.WriteByte(')')
			i = j - 1
		case '(':
			j, err := groupEnd(glob, i)
			if err != nil {
				return "", err
			}
			out.WriteString(glob[i : j+1])
			i = j
		case '\\':
			if i+1 < len(glob) {
				out.WriteString(glob[i : i+2])
				i++
			} else {
				out.WriteString(`\\`)
			}
		default:
			out.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	return out.String(), nil
}

// groupEnd finds the closing parenthesis of the group opening at start,
// honoring nesting and backslash escapes.
func groupEnd(glob string, start int) (int, error) {
	depth := 0
	for i := start; i < len(glob); i++ {
		switch glob[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: missing ) in %q", ErrBadPattern, glob)
}

// buildRegexp joins the component fragments into the whole-path
// regexp. An interior ellipsis swallows any run of complete components
// and a trailing one swallows the rest of the path. The trailing
// separator of a directory candidate is tolerated.
func buildRegexp(components []component, absolute bool, fold bool) (*regexp.Regexp, error) {
	var b strings.Builder
	if fold {
		b.WriteString("(?i)")
	}
	b.WriteByte('^')
	if absolute {
		b.WriteByte('/')
	}

	for i, c := range components {
		last := i == len(components)-1
		if c.kind == componentEllipsis {
			if last {
				b.WriteString(".*")
			} else {
				b.WriteString("(?:.*/)?")
			}
			continue
		}

		b.WriteString(c.frag)
		if !last {
			b.WriteByte('/')
		}
	}
	b.WriteString("/?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
	}

	return re, nil
}
