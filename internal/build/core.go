// Package build is the orchestrator: it drives the per-target state
// machine defined in internal/core, consulting internal/metadata to
// decide whether a target actually needs rebuilding, and dispatching the
// work that follows to internal/job, with internal/platform/internal/tool
// supplying the concrete command lines (§5).
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"

	"github.com/complemake/complemake/internal/core"
	"github.com/complemake/complemake/internal/job"
	"github.com/complemake/complemake/internal/metadata"
	"github.com/complemake/complemake/internal/platform"
)

var log = logging.MustGetLogger("build")

// Core owns everything a single build invocation needs: the validated
// target graph, the platform's tool factories, the on-disk incremental
// build store, and the job runner that actually executes tool/test
// invocations. All target-state mutation funnels through mu, so that the
// two goroutines that touch it (the initial fan-out and the result
// consumer) behave as the single logical orchestrator thread §5 assumes.
type Core struct {
	Graph    *core.BuildGraph
	Platform *platform.Platform
	Meta     *metadata.MetadataStore
	Runner   *job.Runner
	DryRun   bool

	// TestLog aggregates test-case/assertion pass/fail counts across every
	// ToolTestTarget and ExecutableTestTarget run during this build, for
	// the end-of-build test summary (§7).
	TestLog *job.TestLog

	// BuildJob constructs the job for a DependenciesReady target. It
	// defaults to c.buildJob (the real tool/platform-driven dispatch);
	// tests substitute a fake to exercise the scheduler without spawning
	// a real compiler.
	BuildJob func(*core.Target) (*job.Job, error)

	mu       sync.Mutex
	wg       sync.WaitGroup
	failures *multierror.Error
}

// NewCore wires up an orchestrator for a validated graph.
func NewCore(graph *core.BuildGraph, plat *platform.Platform, meta *metadata.MetadataStore, runner *job.Runner, dryRun bool) *Core {
	return &Core{Graph: graph, Platform: plat, Meta: meta, Runner: runner, DryRun: dryRun, TestLog: job.NewTestLog()}
}

// Build drives roots (and everything they transitively depend on) through
// the build lifecycle to completion. It blocks until every reachable
// target has either reached UpToDate or failed, then closes the runner
// and returns the aggregated failure, if any.
func (c *Core) Build(ctx context.Context, roots []*core.Target) error {
	done := make(chan struct{})
	go func() {
		for res := range c.Runner.Results() {
			c.handleResult(res)
			c.wg.Done()
		}
		close(done)
	}()

	c.mu.Lock()
	for _, root := range roots {
		c.fanOut(ctx, root, nil)
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.Runner.Close()
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures.ErrorOrNil()
}

// fanOut implements the recursive start_build walk of §5: it starts
// target (recording dependent as a blocked dependent if given), and if
// this is the first time target has been asked to build, recurses into
// its dependencies before checking whether target itself is now ready to
// run (either because it has no dependencies, or because all of them
// were already up to date). Must be called with mu held.
func (c *Core) fanOut(ctx context.Context, target *core.Target, dependent *core.Target) {
	if !target.StartBuild(dependent) {
		return
	}
	for _, dep := range target.TargetDependencies() {
		c.fanOut(ctx, dep, target)
	}
	if target.ReadyForBuild() {
		c.dispatchReady(ctx, target)
	}
}

// dispatchReady handles a target that has just become DependenciesReady:
// either it's unchanged since the last build and can be finalized without
// running anything, or it needs a job submitted to the runner. Must be
// called with mu held.
func (c *Core) dispatchReady(ctx context.Context, target *core.Target) {
	if !c.Meta.HasTargetSnapshotChanged(target) {
		log.Debugf("%s unchanged, skipping", target.Ident())
		target.BeginFinalize()
		c.release(target)
		return
	}
	target.BeginToolJob()
	build := c.BuildJob
	if build == nil {
		build = c.buildJob
	}
	j, err := build(target)
	if err != nil {
		c.failures = multierror.Append(c.failures, fmt.Errorf("%s: %w", target.Ident(), err))
		return
	}
	c.wg.Add(1)
	c.Runner.Submit(j)
}

// handleResult processes one completed job, advancing its target through
// RunningToolJob -> FinalizeMetadata -> UpToDate and releasing anything
// that was waiting on it.
func (c *Core) handleResult(res job.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := res.Target
	if res.Stderr != nil {
		c.writeBuildLog(target, res.Stderr)
	}
	if res.Skipped {
		log.Infof("%s: skipped (not executable on this platform)", target.Ident())
		c.finalize(target)
		return
	}
	if res.Err != nil {
		c.failures = multierror.Append(c.failures, fmt.Errorf("%s: %w", target.Ident(), res.Err))
		log.Errorf("%s failed: %s\n%s", target.Ident(), res.Err, res.Stderr)
		return
	}
	if err := c.verify(target, res); err != nil {
		c.failures = multierror.Append(c.failures, err)
		return
	}
	c.finalize(target)
}

// logPath returns the §6 log/<file-path>.log location a target's
// captured stderr is persisted to. Targets with no output path of their
// own (eg. a ToolTestTarget) fall back to their identifier.
func logPath(target *core.Target) string {
	base := target.OutputPath()
	if base == "" {
		base = target.Ident()
	}
	return filepath.Join("log", base+".log")
}

// writeBuildLog persists a job's captured stderr to its target's build
// log. A failure to write it is logged but never fails the build itself:
// the log is a diagnostic convenience, not part of the target's verdict.
func (c *Core) writeBuildLog(target *core.Target, stderr []byte) {
	path := logPath(target)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warningf("%s: creating log directory: %s", target.Ident(), err)
		return
	}
	if err := os.WriteFile(path, stderr, 0o644); err != nil {
		log.Warningf("%s: writing build log: %s", target.Ident(), err)
	}
}

// finalize moves target from RunningToolJob (or straight from
// DependenciesReady, for an unchanged target) through FinalizeMetadata to
// UpToDate, updating the snapshot store and releasing dependents. Must be
// called with mu held.
func (c *Core) finalize(target *core.Target) {
	target.BeginFinalize()
	c.Meta.UpdateTargetSnapshot(target, c.DryRun)
	c.release(target)
}

// release marks target up to date and wakes anything that was blocked on
// it. Must be called with mu held.
func (c *Core) release(target *core.Target) {
	for _, dependent := range target.MarkUpToDate() {
		if dependent.DependencyUpdated() && dependent.ReadyForBuild() {
			c.dispatchReady(context.Background(), dependent)
		}
	}
}
