package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartBuildFansOutOnce(t *testing.T) {
	leaf := NewTarget(KindCxxObject, "", "int/a.cpp.o", &CxxObjectPayload{SourcePath: "a.cpp"})
	root := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{}, leaf)

	dispatch := root.StartBuild(nil)
	assert.True(t, dispatch, "first StartBuild must request dispatch")
	assert.Equal(t, 1, root.blockingDependencies)
	assert.False(t, root.ReadyForBuild())

	// A second start_build for the same root (eg. requested again because
	// another root transitively depends on it) must not re-dispatch.
	dispatch = root.StartBuild(nil)
	assert.False(t, dispatch, "invariant 5: a target builds at most once")
}

func TestStartBuildWithNoDependenciesIsImmediatelyReady(t *testing.T) {
	leaf := NewTarget(KindCxxObject, "", "int/a.cpp.o", &CxxObjectPayload{SourcePath: "a.cpp"})
	dispatch := leaf.StartBuild(nil)
	assert.True(t, dispatch)
	assert.True(t, leaf.ReadyForBuild())
}

func TestDependencyUpdatedFiresExactlyOnceAtZero(t *testing.T) {
	leaf1 := NewTarget(KindCxxObject, "", "int/a.cpp.o", &CxxObjectPayload{})
	leaf2 := NewTarget(KindCxxObject, "", "int/b.cpp.o", &CxxObjectPayload{})
	root := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{}, leaf1, leaf2)
	root.StartBuild(nil)

	assert.False(t, root.DependencyUpdated())
	assert.True(t, root.DependencyUpdated(), "should fire exactly when count reaches zero")
	assert.True(t, root.ReadyForBuild())
}

func TestMarkUpToDateReleasesDependentsExactlyOnce(t *testing.T) {
	target := NewTarget(KindCxxObject, "", "int/a.cpp.o", &CxxObjectPayload{})
	dependent := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{}, target)
	dependent.StartBuild(nil)
	target.StartBuild(dependent)

	deps := target.MarkUpToDate()
	assert.Equal(t, []*Target{dependent}, deps)
	assert.True(t, target.UpToDate())

	again := target.MarkUpToDate()
	assert.Nil(t, again, "invariant 7: released exactly once")
}

func TestStartBuildOnAlreadyUpToDateNotifiesImmediately(t *testing.T) {
	target := NewTarget(KindCxxObject, "", "int/a.cpp.o", &CxxObjectPayload{})
	target.StartBuild(nil)
	target.MarkUpToDate()

	dependent := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{}, target)
	dependent.StartBuild(nil) // sets blockingDependencies = 1, state WaitingDeps
	dispatch := target.StartBuild(dependent)
	assert.False(t, dispatch)
	assert.True(t, dependent.ReadyForBuild(), "dependent should have been notified synchronously")
}
