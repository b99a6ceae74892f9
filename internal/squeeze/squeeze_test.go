package squeeze

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/job"
	"github.com/agutierrez/benchgo/internal/sampler"
)

func newJob(t *testing.T) *job.Job {
	t.Helper()
	j, err := job.Start(codespec.Hooks{
		Runner: codespec.Body{Kind: codespec.KindExpression, Expression: "1+1;"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Stop(context.Background()) })
	return j
}

func TestRunTerminatesAtMaxAndReportsBestInRange(t *testing.T) {
	j := newJob(t)
	opts := Options{
		Min:       1,
		Max:       3,
		Threshold: 1,
		Sampler: sampler.Options{
			SampleDuration: 5 * time.Millisecond,
			Samples:        1,
		},
		Report: ReportExtended,
	}

	res, err := Run(context.Background(), j, opts)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.BestConcurrency, opts.Min)
	assert.LessOrEqual(t, res.BestConcurrency, opts.Max)
	assert.NotEmpty(t, res.History)
	// history is newest-first and has one point per evaluated step.
	assert.Equal(t, opts.Max, len(res.History))
}

func TestRunHistoryOmittedUnlessExtended(t *testing.T) {
	j := newJob(t)
	opts := Options{
		Min:       1,
		Max:       2,
		Threshold: 1,
		Sampler: sampler.Options{
			SampleDuration: 5 * time.Millisecond,
			Samples:        1,
		},
	}
	res, err := Run(context.Background(), j, opts)
	require.NoError(t, err)
	assert.Nil(t, res.History)
}

func TestRunBestQPSMatchesMaxInHistory(t *testing.T) {
	j := newJob(t)
	opts := Options{
		Min:       1,
		Max:       4,
		Threshold: 4,
		Sampler: sampler.Options{
			SampleDuration: 5 * time.Millisecond,
			Samples:        1,
		},
		Report: ReportExtended,
	}
	res, err := Run(context.Background(), j, opts)
	require.NoError(t, err)

	maxQPS := res.History[0].QPS
	for _, p := range res.History {
		if p.QPS > maxQPS {
			maxQPS = p.QPS
		}
	}
	assert.Equal(t, maxQPS, res.BestQPS)
}

func TestRunRespectsContextCancellation(t *testing.T) {
	j := newJob(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, j, Options{Min: 1, Max: 2, Sampler: sampler.Options{SampleDuration: time.Millisecond, Samples: 1}})
	assert.Error(t, err)
}
