package core

import "fmt"

// TargetState is the per-target build lifecycle state described in §4.4.
// Transitions are driven exclusively by the orchestrator (internal/build);
// this package only tracks the bookkeeping (counters, flags, dependent
// lists) that the invariants in §3 describe, not the tool/job mechanics
// that actually advance RunningToolJob -> FinalizeMetadata.
type TargetState int32

const (
	Fresh TargetState = iota
	Building
	WaitingDeps
	DependenciesReady
	RunningToolJob
	FinalizeMetadata
	UpToDate
)

func (s TargetState) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Building:
		return "Building"
	case WaitingDeps:
		return "WaitingDeps"
	case DependenciesReady:
		return "DependenciesReady"
	case RunningToolJob:
		return "RunningToolJob"
	case FinalizeMetadata:
		return "FinalizeMetadata"
	case UpToDate:
		return "UpToDate"
	default:
		return "Unknown"
	}
}

// StartBuild implements the start_build transition. dependent is the
// target that is waiting on this one, or nil if this is a root target
// requested directly by the caller.
//
// It returns dispatch=true exactly the first time this target is asked
// to build (invariant 5): the caller must then call StartBuild(t) on
// every one of t's TargetDependencies. If dispatch is false and the
// target was already up to date, the dependent (if any) has already been
// notified via DependencyUpdated before this call returns.
func (t *Target) StartBuild(dependent *Target) (dispatch bool) {
	if t.upToDate {
		if dependent != nil {
			dependent.DependencyUpdated()
		}
		return false
	}
	if dependent != nil {
		t.blockedDependents = append(t.blockedDependents, dependent)
	}
	if t.buildOnce {
		return false // already building or done; dependent was queued above.
	}
	t.buildOnce = true
	t.building = true
	t.state = Building
	deps := t.TargetDependencies()
	t.blockingDependencies = len(deps)
	t.state = WaitingDeps
	if t.blockingDependencies == 0 {
		t.state = DependenciesReady
	}
	return true
}

// ReadyForBuild reports whether this target's blocking dependency count
// reached zero as of the last StartBuild/DependencyUpdated call, ie.
// whether the caller should proceed straight to the needs_rebuild check
// without waiting for further DependencyUpdated calls.
func (t *Target) ReadyForBuild() bool {
	return t.state == DependenciesReady
}

// DependencyUpdated implements the dependency_updated transition: decrement
// blockingDependencies and return true exactly once, the moment it reaches
// zero (invariant 4).
func (t *Target) DependencyUpdated() bool {
	if t.state != WaitingDeps {
		// Either already past this point, or a root target with no
		// blocking dependencies in the first place; nothing to do.
		return false
	}
	t.blockingDependencies--
	if t.blockingDependencies < 0 {
		panic(fmt.Sprintf("target %s: blocking_dependencies went negative", t.Ident()))
	}
	if t.blockingDependencies == 0 {
		t.state = DependenciesReady
		return true
	}
	return false
}

// BeginToolJob implements entry into RunningToolJob.
func (t *Target) BeginToolJob() {
	t.state = RunningToolJob
}

// BeginFinalize implements entry into FinalizeMetadata.
func (t *Target) BeginFinalize() {
	t.state = FinalizeMetadata
}

// MarkUpToDate implements the tail of FinalizeMetadata: marks the target
// up to date and returns the dependents to release, exactly once
// (invariant 7). A second call returns nil.
func (t *Target) MarkUpToDate() []*Target {
	if t.released {
		return nil
	}
	t.upToDate = true
	t.building = false
	t.state = UpToDate
	t.released = true
	dependents := t.blockedDependents
	t.blockedDependents = nil
	return dependents
}
