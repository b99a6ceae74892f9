package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func exprHooks(runner string) codespec.Hooks {
	return codespec.Hooks{
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: runner},
	}
}

func TestStartRequiresNoWorkersYet(t *testing.T) {
	j, err := Start(exprHooks("1+1;"))
	require.NoError(t, err)
	assert.Equal(t, 0, j.Concurrency())
}

func TestSetConcurrencyUpAndDown(t *testing.T) {
	j, err := Start(exprHooks("1+1;"))
	require.NoError(t, err)
	defer j.Stop(context.Background())

	require.NoError(t, j.SetConcurrency(context.Background(), 4))
	assert.Equal(t, 4, j.Concurrency())

	time.Sleep(20 * time.Millisecond)
	assert.Greater(t, j.Counter().Load(), uint64(0))

	require.NoError(t, j.SetConcurrency(context.Background(), 1))
	assert.Equal(t, 1, j.Concurrency())

	require.NoError(t, j.SetConcurrency(context.Background(), 0))
	assert.Equal(t, 0, j.Concurrency())
}

func TestStopIsIdempotent(t *testing.T) {
	j, err := Start(exprHooks("1+1;"))
	require.NoError(t, err)
	require.NoError(t, j.SetConcurrency(context.Background(), 2))
	require.NoError(t, j.Stop(context.Background()))
	require.NoError(t, j.Stop(context.Background()))
	assert.Equal(t, 0, j.Concurrency())
}

func TestInitFailedAbortsStart(t *testing.T) {
	h := exprHooks("1;")
	bad := codespec.Body{Kind: codespec.KindExpression, Expression: "throw new Error('boom');"}
	h.Init = &bad
	_, err := Start(h)
	assert.Error(t, err)
}

func TestInitRunnerValueFlowsIntoRunner(t *testing.T) {
	h := codespec.Hooks{
		InitRunner: &codespec.Body{Kind: codespec.KindExpression, Expression: "({n: 41});"},
		Runner:     codespec.Body{Kind: codespec.KindExpression, Expression: "W.n + 1;"},
	}
	j, err := Start(h)
	require.NoError(t, err)
	defer j.Stop(context.Background())
	require.NoError(t, j.SetConcurrency(context.Background(), 1))
	time.Sleep(20 * time.Millisecond)
	assert.Greater(t, j.Counter().Load(), uint64(0))
}

func TestWorkerInitFailedAbortsResize(t *testing.T) {
	h := codespec.Hooks{
		InitRunner: &codespec.Body{Kind: codespec.KindExpression, Expression: "throw new Error('nope');"},
		Runner:     codespec.Body{Kind: codespec.KindExpression, Expression: "1;"},
	}
	j, err := Start(h)
	require.NoError(t, err)
	err = j.SetConcurrency(context.Background(), 2)
	assert.Error(t, err)
}

func TestRunnerFaultSurfacedButNotFatal(t *testing.T) {
	h := codespec.Hooks{
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: "throw new Error('splat');"},
	}
	j, err := Start(h)
	require.NoError(t, err)
	defer j.Stop(context.Background())

	faults := 0
	j.OnWorkerFault(func(idx int, err error) { faults++ })

	require.NoError(t, j.SetConcurrency(context.Background(), 1))
	time.Sleep(20 * time.Millisecond)
	assert.GreaterOrEqual(t, faults, 1)

	// The faulted worker must be decremented from the live count
	// (spec.md §4.2), not counted as still running.
	assert.Equal(t, 0, j.Concurrency())
}

func TestSetConcurrencyReapsDeadWorkerBeforeResizing(t *testing.T) {
	h := codespec.Hooks{
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: "1+1;"},
	}
	j, err := Start(h)
	require.NoError(t, err)
	defer j.Stop(context.Background())

	require.NoError(t, j.SetConcurrency(context.Background(), 2))
	require.Equal(t, 2, j.Concurrency())

	// Simulate a worker that already died from a runner fault, bypassing
	// the real fault path so this doesn't race against goroutine
	// scheduling: reapDeadLocked's bookkeeping, not fault timing, is under test.
	j.mu.Lock()
	j.workers[0].dead.Store(true)
	j.workers[0].stop.Store(true)
	j.mu.Unlock()

	// Re-asserting the same nominal concurrency must still produce 2
	// truly live workers: the dead slot has to be reaped and replaced,
	// not left occupying a count that masks the missing worker.
	require.NoError(t, j.SetConcurrency(context.Background(), 2))
	assert.Equal(t, 2, j.Concurrency())
}

func TestDoneRunsExactlyOnce(t *testing.T) {
	doneCalls := 0
	h := codespec.Hooks{
		Done:   &codespec.Body{Kind: codespec.KindTriple, Triple: codespec.Triple{Module: "noop"}},
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: "1;"},
	}
	_ = doneCalls
	j, err := Start(h)
	require.NoError(t, err)
	// "noop" isn't a registered builtin, so Done falls through to a
	// script global call, which will error — confirming Done only runs
	// from Stop, and only once, is still observable via error identity.
	err1 := j.Stop(context.Background())
	err2 := j.Stop(context.Background())
	assert.Error(t, err1)
	assert.NoError(t, err2)
}
