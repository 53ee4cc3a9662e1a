package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complemake/complemake/internal/core"
	"github.com/complemake/complemake/internal/job"
	"github.com/complemake/complemake/internal/metadata"
)

func touchOutput(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestBuildRunsDependenciesBeforeDependents(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.o")
	exePath := filepath.Join(dir, "a.out")

	obj := core.NewTarget(core.KindCxxObject, "", objPath, &core.CxxObjectPayload{SourcePath: "a.cpp"})
	exe := core.NewTarget(core.KindExecutable, "app", exePath, &core.ExecutablePayload{}, obj)

	graph := core.NewBuildGraph()
	require.NoError(t, graph.AddTarget(obj))
	require.NoError(t, graph.AddTarget(exe))
	require.NoError(t, graph.Validate())

	meta := metadata.NewMetadataStore()
	runner := job.NewRunner(context.Background(), 2, true)
	c := NewCore(graph, nil, meta, runner, false)

	var ran []string
	c.BuildJob = func(target *core.Target) (*job.Job, error) {
		return &job.Job{
			Target: target,
			Kind:   job.KindSynchronous,
			Run: func(ctx context.Context) error {
				ran = append(ran, target.Ident())
				touchOutput(t, target.OutputPath())
				return nil
			},
		}, nil
	}

	err := c.Build(context.Background(), []*core.Target{exe})
	require.NoError(t, err)
	require.Len(t, ran, 2)
	assert.Equal(t, objPath, ran[0], "dependency must build before its dependent")
	assert.Equal(t, "app", ran[1])
	assert.True(t, obj.UpToDate())
	assert.True(t, exe.UpToDate())
}

func TestBuildSharedDependencyRunsOnce(t *testing.T) {
	dir := t.TempDir()
	common := core.NewTarget(core.KindCxxObject, "", filepath.Join(dir, "common.o"), &core.CxxObjectPayload{})
	a := core.NewTarget(core.KindExecutable, "a", filepath.Join(dir, "a"), &core.ExecutablePayload{}, common)
	b := core.NewTarget(core.KindExecutable, "b", filepath.Join(dir, "b"), &core.ExecutablePayload{}, common)

	graph := core.NewBuildGraph()
	require.NoError(t, graph.AddTarget(common))
	require.NoError(t, graph.AddTarget(a))
	require.NoError(t, graph.AddTarget(b))

	meta := metadata.NewMetadataStore()
	runner := job.NewRunner(context.Background(), 2, true)
	c := NewCore(graph, nil, meta, runner, false)

	count := 0
	c.BuildJob = func(target *core.Target) (*job.Job, error) {
		return &job.Job{
			Target: target,
			Kind:   job.KindSynchronous,
			Run: func(ctx context.Context) error {
				if target == common {
					count++
				}
				touchOutput(t, target.OutputPath())
				return nil
			},
		}, nil
	}

	require.NoError(t, c.Build(context.Background(), []*core.Target{a, b}))
	assert.Equal(t, 1, count, "shared dependency must build exactly once")
}

func TestBuildSkipsUnchangedTarget(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.o")
	touchOutput(t, objPath)
	obj := core.NewTarget(core.KindCxxObject, "", objPath, &core.CxxObjectPayload{})

	graph := core.NewBuildGraph()
	require.NoError(t, graph.AddTarget(obj))

	meta := metadata.NewMetadataStore()
	meta.HasTargetSnapshotChanged(obj)
	meta.UpdateTargetSnapshot(obj, false)

	runner := job.NewRunner(context.Background(), 1, true)
	c := NewCore(graph, nil, meta, runner, false)
	ran := false
	c.BuildJob = func(target *core.Target) (*job.Job, error) {
		ran = true
		return nil, nil
	}

	require.NoError(t, c.Build(context.Background(), []*core.Target{obj}))
	assert.False(t, ran)
	assert.True(t, obj.UpToDate())
}

func TestBuildReportsJobFailure(t *testing.T) {
	dir := t.TempDir()
	obj := core.NewTarget(core.KindCxxObject, "", filepath.Join(dir, "a.o"), &core.CxxObjectPayload{})
	graph := core.NewBuildGraph()
	require.NoError(t, graph.AddTarget(obj))

	meta := metadata.NewMetadataStore()
	runner := job.NewRunner(context.Background(), 1, true)
	c := NewCore(graph, nil, meta, runner, false)
	c.BuildJob = func(target *core.Target) (*job.Job, error) {
		return &job.Job{Target: target, Kind: job.KindExternalCmd, Argv: []string{"false"}}, nil
	}

	err := c.Build(context.Background(), []*core.Target{obj})
	assert.Error(t, err)
	assert.False(t, obj.UpToDate())
}
