package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complemake/complemake/internal/core"
)

func TestExecuteSynchronousJob(t *testing.T) {
	ran := false
	j := &Job{
		Target: core.NewTarget(core.KindExecutable, "t", "", &core.ExecutablePayload{}),
		Kind:   KindSynchronous,
		Run:    func(ctx context.Context) error { ran = true; return nil },
	}
	res := j.Execute(context.Background())
	require.NoError(t, res.Err)
	assert.True(t, ran)
}

func TestExecuteExternalCmdCapturesOutput(t *testing.T) {
	j := &Job{
		Target: core.NewTarget(core.KindExecutable, "t", "", &core.ExecutablePayload{}),
		Kind:   KindExternalCmd,
		Argv:   []string{"echo", "hello"},
	}
	res := j.Execute(context.Background())
	require.NoError(t, res.Err)
	assert.Contains(t, string(res.Stdout), "hello")
}

func TestExecuteExternalCmdReportsFailure(t *testing.T) {
	j := &Job{
		Target: core.NewTarget(core.KindExecutable, "t", "", &core.ExecutablePayload{}),
		Kind:   KindExternalCmd,
		Argv:   []string{"false"},
	}
	res := j.Execute(context.Background())
	assert.Error(t, res.Err)
}

func TestExecuteToolTestAppliesTransforms(t *testing.T) {
	ft, err := core.NewFilterTransform(" world")
	require.NoError(t, err)
	j := &Job{
		Target:     core.NewTarget(core.KindToolTest, "t", "", &core.ToolTestPayload{}),
		Kind:       KindToolTest,
		Argv:       []string{"echo", "hello world"},
		Transforms: []core.Transform{ft},
	}
	res := j.Execute(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, " world", string(res.Stdout))
}

func TestExecuteEmptyArgvErrors(t *testing.T) {
	j := &Job{
		Target: core.NewTarget(core.KindExecutable, "t", "", &core.ExecutablePayload{}),
		Kind:   KindExternalCmd,
	}
	res := j.Execute(context.Background())
	assert.Error(t, res.Err)
}
