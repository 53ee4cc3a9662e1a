package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"

	"github.com/complemake/complemake/internal/core"
	"github.com/complemake/complemake/internal/job"
)

// envOverrideArgs splits a CXXFLAGS/LDFLAGS-style environment variable into
// argv tokens using shell word-splitting rules, so a value like
// `-DFOO="a b"` contributes one token rather than three (§4.4). A malformed
// value (eg. an unterminated quote) is ignored rather than failing the
// build.
func envOverrideArgs(name string) []string {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	args, err := shlex.Split(val)
	if err != nil {
		return nil
	}
	return args
}

// buildJob constructs the job that will carry target from RunningToolJob
// to a job.Result, dispatching on its kind (§4.2, §4.6).
func (c *Core) buildJob(target *core.Target) (*job.Job, error) {
	switch p := target.Payload.(type) {
	case *core.CxxPreprocessedPayload:
		return c.compileJob(target, p.SourcePath, true)
	case *core.CxxObjectPayload:
		return c.compileJob(target, p.SourcePath, false)
	case *core.ExecutablePayload:
		return c.linkJob(target, false, "")
	case *core.DynLibPayload:
		return c.linkJob(target, true, p.BuildMacro)
	case *core.ToolTestPayload:
		return c.toolTestJob(target, p)
	case *core.ExecutableTestPayload:
		return c.exeTestJob(target, p)
	default:
		return nil, fmt.Errorf("unhandled target payload %T", target.Payload)
	}
}

// compileJob builds either a preprocess-only step or a full object
// compile, depending on preprocessOnly.
func (c *Core) compileJob(target *core.Target, sourcePath string, preprocessOnly bool) (*job.Job, error) {
	t, err := c.Platform.GetCompiler("", nil)
	if err != nil {
		return nil, err
	}
	t.PreprocessOnly = preprocessOnly
	t.Output = target.OutputPath()
	t.Inputs = []string{sourcePath}
	t.EnvOverride = envOverrideArgs("CXXFLAGS")

	if dynlib := finalDynLib(target); dynlib != nil {
		t.Dynlib = true
		if dynlib.BuildMacro != "" {
			t.AddDefine(dynlib.BuildMacro, "")
		}
	}

	return &job.Job{
		Target: target,
		Kind:   job.KindExternalCmd,
		Argv:   t.CommandLine(),
	}, nil
}

// finalDynLib returns the DynLibPayload of the dynamic library that this
// compile step's output ultimately feeds, or nil if it feeds an
// executable (or isn't a compile step for a kind that tracks this at
// all).
func finalDynLib(target *core.Target) *core.DynLibPayload {
	var final *core.Target
	switch p := target.Payload.(type) {
	case *core.CxxObjectPayload:
		final = p.FinalOutput
	case *core.CxxPreprocessedPayload:
		final = p.FinalOutput
	}
	if final == nil {
		return nil
	}
	if dl, ok := final.Payload.(*core.DynLibPayload); ok {
		return dl
	}
	return nil
}

// linkJob builds the link step for an executable or dynamic library.
func (c *Core) linkJob(target *core.Target, dynlib bool, buildMacro string) (*job.Job, error) {
	t, err := c.Platform.GetLinker("", nil)
	if err != nil {
		return nil, err
	}
	t.Dynlib = dynlib
	t.Output = target.OutputPath()
	t.Inputs = target.DependencyOutputPaths()
	t.EnvOverride = envOverrideArgs("LDFLAGS")
	for _, dep := range target.Dependencies {
		if fl, ok := dep.(*core.ForeignLib); ok {
			t.AddLib(fl.Name)
		}
	}

	return &job.Job{
		Target: target,
		Kind:   job.KindExternalCmd,
		Argv:   t.CommandLine(),
	}, nil
}

// toolTestJob compares two static operands in-process; it never spawns a
// subprocess, since the comparison itself is the "tool" (§4.6).
func (c *Core) toolTestJob(target *core.Target, p *core.ToolTestPayload) (*job.Job, error) {
	return &job.Job{
		Target: target,
		Kind:   job.KindSynchronous,
		Run: func(ctx context.Context) error {
			return nil // actual comparison happens in verify, once both operand paths are resolved.
		},
	}, nil
}

// exeTestJob runs the compiled test executable, applying the platform's
// script-invocation and dynlib-search-path conventions. If a
// TestExecScript dependency is present, that script's path becomes
// argv[0] and the built binary is passed as its argument; otherwise the
// binary is argv[0] (§4.4). A target that links abaclade-testing
// dispatches through the AbacladeTest job kind instead of a plain exit
// code check.
func (c *Core) exeTestJob(target *core.Target, p *core.ExecutableTestPayload) (*job.Job, error) {
	exePath := target.OutputPath()
	argv := []string{exePath}
	for _, dep := range target.Dependencies {
		if script, ok := dep.(*core.TestExecScript); ok {
			argv = []string{script.Path, exePath}
			break
		}
	}
	argv = c.Platform.AdjustPopenArgsForScript(argv)

	env := os.Environ()
	for _, dep := range target.TargetDependencies() {
		if _, ok := dep.Payload.(*core.DynLibPayload); ok {
			env = c.Platform.AddDirToDynlibEnvPath(env, filepath.Dir(dep.OutputPath()))
		}
	}

	kind := job.KindToolTest
	if p.UsesAbacladeTesting {
		kind = job.KindAbacladeTest
	}

	return &job.Job{
		Target:         target,
		Kind:           kind,
		Argv:           argv,
		Env:            env,
		Transforms:     p.Transforms,
		CrossBuildTest: c.Platform.IsCrossBuild(),
	}, nil
}

// verify runs the post-job comparison for test kinds: tooltest compares
// its two static operands directly; exetest compares captured,
// transformed stdout against its expected output, if any.
func (c *Core) verify(target *core.Target, res job.Result) error {
	switch p := target.Payload.(type) {
	case *core.ToolTestPayload:
		return c.verifyToolTest(target, p)
	case *core.ExecutableTestPayload:
		return c.verifyExeTest(target, p, res)
	default:
		return nil
	}
}

func (c *Core) verifyToolTest(target *core.Target, p *core.ToolTestPayload) error {
	a, err := c.readOperand(p.Operands[0])
	if err != nil {
		return fmt.Errorf("%s: %w", target.Ident(), err)
	}
	b, err := c.readOperand(p.Operands[1])
	if err != nil {
		return fmt.Errorf("%s: %w", target.Ident(), err)
	}
	a = core.ApplyTransforms(p.Transforms, a)
	b = core.ApplyTransforms(p.Transforms, b)
	if a == b {
		c.TestLog.AddTestCaseResult(1, 0)
		return nil
	}
	c.TestLog.AddTestCaseResult(1, 1)
	rendered, derr := renderDiff(target.Ident(), a, b)
	if derr != nil {
		rendered = fmt.Sprintf("(failed to render diff: %s)", derr)
	}
	return fmt.Errorf("%s: operands differ:\n%s", target.Ident(), rendered)
}

func (c *Core) readOperand(dep core.Dependency) (string, error) {
	path := dep.Ident()
	if t, ok := dep.AsTarget(); ok {
		path = t.OutputPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Core) verifyExeTest(target *core.Target, p *core.ExecutableTestPayload, res job.Result) error {
	if p.UsesAbacladeTesting {
		failedAssertions := 0
		for _, tc := range res.TestCases {
			c.TestLog.AddTestCaseResult(tc.TotalAssertions, tc.FailedAssertions)
			failedAssertions += tc.FailedAssertions
		}
		if failedAssertions > 0 {
			return fmt.Errorf("%s: %d assertion(s) failed", target.Ident(), failedAssertions)
		}
	}
	if p.ExpectedOutput == nil {
		return nil
	}
	expected, err := os.ReadFile(p.ExpectedOutput.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", target.Ident(), err)
	}
	expectedText := core.ApplyTransforms(p.Transforms, string(expected))
	actualText := string(res.Stdout)
	if expectedText == actualText {
		c.TestLog.AddTestCaseResult(1, 0)
		return nil
	}
	c.TestLog.AddTestCaseResult(1, 1)
	rendered, derr := renderDiff(target.Ident(), expectedText, actualText)
	if derr != nil {
		rendered = fmt.Sprintf("(failed to render diff: %s)", derr)
	}
	return fmt.Errorf("%s: output did not match expected:\n%s", target.Ident(), rendered)
}
