package job

import (
	"fmt"
	"strings"
	"sync"
)

// TestLog aggregates pass/fail counts across every test target executed
// during a build, mirroring comk.logging.LogGenerator's
// add_testcase_result/write_test_summary bookkeeping. It is safe for
// concurrent use. Results are reported by the orchestrator's verify step
// (ToolTestTarget, ExecutableTestTarget, and the per-case counts an
// AbacladeTest job parsed from its stderr).
type TestLog struct {
	mu sync.Mutex

	totalAssertions  int
	failedAssertions int
	totalCases       int
	failedCases      int
}

// NewTestLog returns an empty TestLog.
func NewTestLog() *TestLog {
	return &TestLog{}
}

// AddTestCaseResult records one test case's outcome: totalAssertions
// assertions ran, failedAssertions of them failed. A case counts as
// failed whenever failedAssertions > 0.
func (l *TestLog) AddTestCaseResult(totalAssertions, failedAssertions int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalAssertions += totalAssertions
	l.failedAssertions += failedAssertions
	l.totalCases++
	if failedAssertions > 0 {
		l.failedCases++
	}
}

// Summary renders the end-of-build test summary (§7), matching the
// "no tests performed" wording when nothing ran at all.
func (l *TestLog) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.totalCases == 0 {
		return "complemake: test summary: no tests performed"
	}
	var b strings.Builder
	b.WriteString("complemake: test summary:\n")
	fmt.Fprintf(&b, "  test cases: %d total, %d passed, %d failed\n",
		l.totalCases, l.totalCases-l.failedCases, l.failedCases)
	fmt.Fprintf(&b, "  assertions: %d total, %d passed, %d failed",
		l.totalAssertions, l.totalAssertions-l.failedAssertions, l.failedAssertions)
	return b.String()
}

// TestCaseResult is one COMK-TEST-CASE-START/END block recognized in an
// AbacladeTestJob's stderr.
type TestCaseResult struct {
	Title            string
	TotalAssertions  int
	FailedAssertions int
}

const (
	abacladeAssertPass = "COMK-TEST-ASSERT-PASS"
	abacladeAssertFail = "COMK-TEST-ASSERT-FAIL "
	abacladeCaseStart  = "COMK-TEST-CASE-START "
	abacladeCaseEnd    = "COMK-TEST-CASE-END"
)

// ParseAbacladeTestProtocol scans a captured stderr stream for the
// COMK-TEST-* line protocol an abaclade-testing-linked executable test
// emits, returning one TestCaseResult per CASE-START/CASE-END block, the
// total number of failed assertions across all of them, and the
// remaining non-protocol lines (for display, the way a failure note
// would be logged). A CASE-START with no matching CASE-END is dropped,
// mirroring the real parser's assumption that the process exits cleanly
// between cases.
func ParseAbacladeTestProtocol(stderr []byte) (cases []TestCaseResult, failedAssertions int, passthrough []string) {
	var current TestCaseResult
	inCase := false
	for _, line := range strings.Split(string(stderr), "\n") {
		switch {
		case line == abacladeAssertPass:
			current.TotalAssertions++
		case strings.HasPrefix(line, abacladeAssertFail):
			current.TotalAssertions++
			current.FailedAssertions++
			passthrough = append(passthrough, strings.TrimPrefix(line, abacladeAssertFail))
		case strings.HasPrefix(line, abacladeCaseStart):
			current = TestCaseResult{Title: strings.TrimPrefix(line, abacladeCaseStart)}
			inCase = true
		case line == abacladeCaseEnd:
			cases = append(cases, current)
			failedAssertions += current.FailedAssertions
			current = TestCaseResult{}
			inCase = false
		default:
			if !inCase && line != "" {
				passthrough = append(passthrough, line)
			}
		}
	}
	return cases, failedAssertions, passthrough
}
