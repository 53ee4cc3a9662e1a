package build

import (
	"fmt"
	"strings"

	diff "github.com/sourcegraph/go-diff/diff"
)

// renderDiff formats a unified diff between expected and actual text for
// a failed comparison (tooltest or exetest expected-output mismatch). It
// is not a minimal diff: the common leading and trailing lines are kept
// as context, and everything between is rendered as a single removed
// block followed by a single added block, which is enough to show a
// human what disagreed without implementing a full LCS.
func renderDiff(name string, expected, actual string) (string, error) {
	expLines := splitLines(expected)
	actLines := splitLines(actual)

	prefix := commonPrefixLen(expLines, actLines)
	suffix := commonSuffixLen(expLines[prefix:], actLines[prefix:])

	var body strings.Builder
	for _, l := range expLines[:prefix] {
		fmt.Fprintf(&body, " %s\n", l)
	}
	for _, l := range expLines[prefix : len(expLines)-suffix] {
		fmt.Fprintf(&body, "-%s\n", l)
	}
	for _, l := range actLines[prefix : len(actLines)-suffix] {
		fmt.Fprintf(&body, "+%s\n", l)
	}
	for _, l := range expLines[len(expLines)-suffix:] {
		fmt.Fprintf(&body, " %s\n", l)
	}

	hunk := &diff.Hunk{
		OrigStartLine: 1,
		OrigLines:     int32(len(expLines)),
		NewStartLine:  1,
		NewLines:      int32(len(actLines)),
		Body:          []byte(body.String()),
	}
	fd := &diff.FileDiff{
		OrigName: name + " (expected)",
		NewName:  name + " (actual)",
		Hunks:    []*diff.Hunk{hunk},
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
