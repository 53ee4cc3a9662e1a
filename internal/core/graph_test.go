package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTargetRejectsDuplicateName(t *testing.T) {
	g := NewBuildGraph()
	a := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{})
	b := NewTarget(KindExecutable, "app", "bin/app2", &ExecutablePayload{})
	require.NoError(t, g.AddTarget(a))
	err := g.AddTarget(b)
	require.Error(t, err)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Kind)
}

func TestAddTargetRejectsDuplicatePath(t *testing.T) {
	g := NewBuildGraph()
	a := NewTarget(KindExecutable, "app", "bin/app", &ExecutablePayload{})
	b := NewTarget(KindExecutable, "app2", "bin/app", &ExecutablePayload{})
	require.NoError(t, g.AddTarget(a))
	err := g.AddTarget(b)
	require.Error(t, err)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "output path", dup.Kind)
}

func TestValidateDetectsCycle(t *testing.T) {
	g := NewBuildGraph()
	a := NewTarget(KindExecutable, "a", "bin/a", &ExecutablePayload{})
	b := NewTarget(KindExecutable, "b", "bin/b", &ExecutablePayload{})
	c := NewTarget(KindExecutable, "c", "bin/c", &ExecutablePayload{})
	a.Dependencies = append(a.Dependencies, b)
	b.Dependencies = append(b.Dependencies, c)
	c.Dependencies = append(c.Dependencies, a)
	require.NoError(t, g.AddTarget(a))
	require.NoError(t, g.AddTarget(b))
	require.NoError(t, g.AddTarget(c))

	err := g.Validate()
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Cycle)
}

func TestValidateAcceptsAcyclicGraph(t *testing.T) {
	g := NewBuildGraph()
	a := NewTarget(KindExecutable, "a", "bin/a", &ExecutablePayload{})
	b := NewTarget(KindExecutable, "b", "bin/b", &ExecutablePayload{})
	a.Dependencies = append(a.Dependencies, b)
	require.NoError(t, g.AddTarget(a))
	require.NoError(t, g.AddTarget(b))
	assert.NoError(t, g.Validate())
}

func TestUndeterminedLibResolvesToTarget(t *testing.T) {
	g := NewBuildGraph()
	lib := NewTarget(KindDynLib, "greet", "lib/libgreet.so", &DynLibPayload{})
	require.NoError(t, g.AddTarget(lib))

	u := &UndeterminedLib{Name: "greet"}
	resolved := u.Resolve(g)
	target, ok := resolved.AsTarget()
	require.True(t, ok)
	assert.Same(t, lib, target)
}

func TestUndeterminedLibResolvesToForeignLib(t *testing.T) {
	g := NewBuildGraph()
	u := &UndeterminedLib{Name: "pthread"}
	resolved := u.Resolve(g)
	_, ok := resolved.AsTarget()
	assert.False(t, ok)
	assert.Equal(t, "pthread", resolved.Ident())
}
