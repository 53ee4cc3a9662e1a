package core

import "regexp"

// Transform rewrites a test operand before comparison (§4.6). Operates on
// decoded text; both ToolTestTarget and ExecutableTestTarget operands are
// plain bytes read from disk or captured from a process's stdout, which
// for this implementation is always treated as UTF-8 text (the "locale's
// preferred encoding" spec.md leaves unspecified beyond that).
type Transform interface {
	Apply(text string) string
}

// FilterTransform is the only transform variant the project file can
// declare (tag !complemake/target/filter-output-transform): a regular
// expression applied with dot-matches-newline, replacing the operand with
// the newline-joined, non-overlapping matches.
type FilterTransform struct {
	re *regexp.Regexp
}

// NewFilterTransform compiles pattern with dot-matches-newline semantics.
func NewFilterTransform(pattern string) (*FilterTransform, error) {
	re, err := regexp.Compile("(?s)" + pattern)
	if err != nil {
		return nil, err
	}
	return &FilterTransform{re: re}, nil
}

// Apply implements Transform.
func (f *FilterTransform) Apply(text string) string {
	matches := f.re.FindAllString(text, -1)
	out := ""
	for i, m := range matches {
		if i > 0 {
			out += "\n"
		}
		out += m
	}
	return out
}

// ApplyTransforms applies every transform in declaration order to text.
func ApplyTransforms(transforms []Transform, text string) string {
	for _, tr := range transforms {
		text = tr.Apply(text)
	}
	return text
}
