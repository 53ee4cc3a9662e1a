package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complemake/complemake/internal/core"
)

func newTarget(name string) *core.Target {
	return core.NewTarget(core.KindExecutable, name, "", &core.ExecutablePayload{})
}

func TestRunnerExecutesAllJobs(t *testing.T) {
	r := NewRunner(context.Background(), 2, true)
	for i := 0; i < 5; i++ {
		r.Submit(&Job{Target: newTarget("t"), Kind: KindExternalCmd, Argv: []string{"true"}})
	}
	got := 0
	done := make(chan struct{})
	go func() {
		for range r.Results() {
			got++
		}
		close(done)
	}()
	r.Close()
	<-done
	assert.Equal(t, 5, got)
	assert.Equal(t, 0, r.FailedCount())
	require.NoError(t, r.Err())
}

func TestRunnerTracksFailures(t *testing.T) {
	r := NewRunner(context.Background(), 2, true)
	r.Submit(&Job{Target: newTarget("ok"), Kind: KindExternalCmd, Argv: []string{"true"}})
	r.Submit(&Job{Target: newTarget("bad"), Kind: KindExternalCmd, Argv: []string{"false"}})
	go func() {
		for range r.Results() {
		}
	}()
	r.Close()
	assert.Equal(t, 1, r.FailedCount())
	assert.Error(t, r.Err())
}

func TestRunnerStopsDispatchWithoutKeepGoing(t *testing.T) {
	r := NewRunner(context.Background(), 1, false)
	r.Submit(&Job{Target: newTarget("bad"), Kind: KindExternalCmd, Argv: []string{"false"}})
	go func() {
		for range r.Results() {
		}
	}()
	time.Sleep(20 * time.Millisecond)
	r.Submit(&Job{Target: newTarget("never"), Kind: KindExternalCmd, Argv: []string{"true"}})
	r.Close()
	assert.Equal(t, 1, r.FailedCount())
}

func TestRunnerSummary(t *testing.T) {
	r := NewRunner(context.Background(), 1, true)
	r.Close()
	assert.Contains(t, r.Summary(3), "succeeded")
}
