package wildcard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// template is one parsed derivation template, split into literal runs
// and capture-group references.
type template struct {
	text string
	ops  []templateOp
	max  int
}

// templateOp is a literal run when group is zero, otherwise a reference
// to that capture group.
type templateOp struct {
	lit   string
	group int
}

// parseTemplate splits text at $n references. A $ followed by digits
// starting with 1-9 references that capture group; everything else is
// literal.
func parseTemplate(text string) template {
	t := template{text: text}
	var lit strings.Builder

	for i := 0; i < len(text); i++ {
		if text[i] == '$' && i+1 < len(text) && text[i+1] >= '1' && text[i+1] <= '9' {
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			n, _ := strconv.Atoi(text[i+1 : j])

			if lit.Len() > 0 {
				t.ops = append(t.ops, templateOp{lit: lit.String()})
				lit.Reset()
			}
			t.ops = append(t.ops, templateOp{group: n})
			if n > t.max {
				t.max = n
			}

			i = j - 1
			continue
		}
		lit.WriteByte(text[i])
	}

	if lit.Len() > 0 {
		t.ops = append(t.ops, templateOp{lit: lit.String()})
	}

	return t
}

func (t template) expand(groups []string) string {
	var b strings.Builder
	for _, op := range t.ops {
		if op.group > 0 {
			if op.group < len(groups) {
				b.WriteString(groups[op.group])
			}
			continue
		}
		b.WriteString(op.lit)
	}

	return b.String()
}

// deriveAll expands every template against the groups re captured from
// matched. Templates are validated against re here, not at
// construction, because the active regexp may be swapped at runtime.
func deriveAll(matched string, re *regexp.Regexp, templates []template) ([]string, error) {
	if len(templates) == 0 {
		return nil, nil
	}

	for _, t := range templates {
		if t.max > re.NumSubexp() {
			return nil, fmt.Errorf("%w: $%d in %q, expression has %d groups",
				ErrBadTemplate, t.max, t.text, re.NumSubexp())
		}
	}

	groups := re.FindStringSubmatch(matched)
	if groups == nil {
		return nil, nil
	}

	derived := make([]string, 0, len(templates))
	for _, t := range templates {
		derived = append(derived, siblingJoin(matched, t.expand(groups)))
	}

	return derived, nil
}

// siblingJoin places a relative derived name next to the matched path.
// An absolute derived name stands on its own.
func siblingJoin(matched, derived string) string {
	if strings.HasPrefix(derived, "/") {
		return derived
	}

	base := strings.TrimSuffix(matched, "/")
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		return base[:i+1] + derived
	}

	return derived
}
