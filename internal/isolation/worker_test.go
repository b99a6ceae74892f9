package isolation

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

func TestServeWorkerRunsAndReplies(t *testing.T) {
	var in, out bytes.Buffer

	req := runRequest{Kind: msgRun, Concurrency: 2}
	require.NoError(t, writeLine(&in, req))
	require.NoError(t, writeLine(&in, runRequest{Kind: msgStop}))

	var gotOpts RunOptions
	run := func(ctx context.Context, code codespec.Hooks, opts RunOptions, sq *squeeze.Options) (RunResult, error) {
		gotOpts = opts
		return RunResult{Name: "ok", Mean: 42}, nil
	}

	err := ServeWorker(context.Background(), &in, &out, run)
	require.NoError(t, err)
	assert.Equal(t, 2, gotOpts.Concurrency)

	var resp runResponse
	require.NoError(t, readLine(bufio.NewReader(&out), &resp))
	assert.Equal(t, msgDone, resp.Kind)
	assert.Equal(t, 42.0, resp.Result.Mean)
}

func TestServeWorkerSurfacesRunError(t *testing.T) {
	var in, out bytes.Buffer
	require.NoError(t, writeLine(&in, runRequest{Kind: msgRun}))
	require.NoError(t, writeLine(&in, runRequest{Kind: msgStop}))

	run := func(ctx context.Context, code codespec.Hooks, opts RunOptions, sq *squeeze.Options) (RunResult, error) {
		return RunResult{}, errors.New("boom")
	}

	err := ServeWorker(context.Background(), &in, &out, run)
	require.NoError(t, err)

	var resp runResponse
	require.NoError(t, readLine(bufio.NewReader(&out), &resp))
	assert.Equal(t, msgFail, resp.Kind)
	assert.Equal(t, "boom", resp.Error)
}

func TestServeWorkerEOFWithoutStopIsClean(t *testing.T) {
	var in, out bytes.Buffer
	err := ServeWorker(context.Background(), &in, &out, nil)
	require.NoError(t, err)
}
