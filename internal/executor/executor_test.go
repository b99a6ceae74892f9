package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/isolation"
	"github.com/agutierrez/benchgo/internal/sampler"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

func exprCode(name, expr string) codespec.Hooks {
	return codespec.Hooks{
		Name:   name,
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: expr},
	}
}

func TestRunSingleFragment(t *testing.T) {
	e := &Executor{}
	row, err := e.Run(context.Background(), exprCode("a", "1+1;"), RunOptions{
		Concurrency: 2,
		Sampler:     sampler.Options{SampleDuration: 5 * time.Millisecond, Samples: 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", row.Name)
	assert.Equal(t, 2, row.Concurrency)
	assert.Nil(t, row.Squeeze)
}

func TestRunWithSqueeze(t *testing.T) {
	e := &Executor{}
	sq := squeeze.Options{Min: 1, Max: 2, Threshold: 1}
	row, err := e.Run(context.Background(), exprCode("a", "1+1;"), RunOptions{
		Sampler: sampler.Options{SampleDuration: 5 * time.Millisecond, Samples: 1},
	}, &sq)
	require.NoError(t, err)
	require.NotNil(t, row.Squeeze)
	assert.GreaterOrEqual(t, row.Squeeze.BestConcurrency, 1)
}

func TestCompareMultipleFragments(t *testing.T) {
	e := &Executor{}
	rows, err := e.Compare(context.Background(), []codespec.Hooks{
		exprCode("a", "1+1;"),
		exprCode("b", "2+2;"),
	}, RunOptions{
		Concurrency: 1,
		Sampler:     sampler.Options{SampleDuration: 5 * time.Millisecond, Samples: 2},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, "b", rows[1].Name)
}

func TestSqueezeRejectsMultipleFragments(t *testing.T) {
	e := &Executor{}
	sq := squeeze.Options{Min: 1, Max: 1}
	_, err := e.run(context.Background(), []codespec.Hooks{
		exprCode("a", "1;"),
		exprCode("b", "2;"),
	}, RunOptions{}, &sq)
	assert.Error(t, err)
}

func TestRunConstructionFailureAbortsBatch(t *testing.T) {
	e := &Executor{}
	bad := codespec.Hooks{
		Name:   "bad",
		Init:   &codespec.Body{Kind: codespec.KindExpression, Expression: "throw new Error('nope');"},
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: "1;"},
	}
	_, err := e.Compare(context.Background(), []codespec.Hooks{
		exprCode("a", "1;"),
		bad,
	}, RunOptions{
		Concurrency: 1,
		Sampler:     sampler.Options{SampleDuration: 5 * time.Millisecond, Samples: 1},
	})
	assert.Error(t, err)
}

type fakeHandle struct {
	shutdownCalled bool
}

func (f *fakeHandle) Run(ctx context.Context, code codespec.Hooks, opts isolation.RunOptions, sq *squeeze.Options) (isolation.RunResult, error) {
	return isolation.RunResult{Name: code.Name, Mean: 7, Concurrency: opts.Concurrency}, nil
}

func (f *fakeHandle) Shutdown(ctx context.Context) error {
	f.shutdownCalled = true
	return nil
}

type fakeBridge struct {
	handles []*fakeHandle
}

func (b *fakeBridge) Prepare(ctx context.Context, n int) ([]isolation.Handle, error) {
	out := make([]isolation.Handle, n)
	for i := 0; i < n; i++ {
		h := &fakeHandle{}
		b.handles = append(b.handles, h)
		out[i] = h
	}
	return out, nil
}

func TestRunIsolatedUsesBridgeAndShutsDown(t *testing.T) {
	bridge := &fakeBridge{}
	e := &Executor{Bridge: bridge}

	rows, err := e.Compare(context.Background(), []codespec.Hooks{
		exprCode("a", "1;"),
		exprCode("b", "2;"),
	}, RunOptions{Isolated: true, Concurrency: 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, 7.0, rows[0].Mean)

	for _, h := range bridge.handles {
		assert.True(t, h.shutdownCalled)
	}
}

func TestRunIsolatedWithoutBridgeErrors(t *testing.T) {
	e := &Executor{}
	_, err := e.Run(context.Background(), exprCode("a", "1;"), RunOptions{Isolated: true}, nil)
	assert.Error(t, err)
}
