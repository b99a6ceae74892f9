// Package squeeze implements the concurrency-saturation search
// (spec.md §4.4): it drives a Job through ascending worker counts,
// re-benchmarking at each step via the sampler package, and stops once
// QPS has failed to improve for threshold consecutive increments.
// Adapted from the teacher's internal/sched dispatch loop, generalized
// from a fixed worker pool to a pool whose size is itself the search
// variable.
package squeeze

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agutierrez/benchgo/internal/bgerr"
	"github.com/agutierrez/benchgo/internal/counter"
	"github.com/agutierrez/benchgo/internal/job"
	"github.com/agutierrez/benchgo/internal/sampler"
)

// Report selects whether Run returns only the best point or the full
// saturation history alongside it.
type Report int

const (
	ReportBest Report = iota
	ReportExtended
)

// Options mirrors spec.md §4.4's squeeze_options, plus the Sampler
// options applied at every step.
type Options struct {
	Min       int // default 1
	Max       int // default: caller-supplied safety cap
	Threshold int // default 3

	Sampler sampler.Options
	Report  Report
	Logger  zerolog.Logger `json:"-"`
}

// WithDefaults fills zero-valued fields with spec.md's documented
// defaults. Max has no universal safe default (it depends on host
// process/thread limits), so callers must supply it; WithDefaults only
// guards against a Max below Min (including zero) by raising it to Min.
func (o Options) WithDefaults() Options {
	if o.Min <= 0 {
		o.Min = 1
	}
	if o.Threshold <= 0 {
		o.Threshold = 3
	}
	if o.Max < o.Min {
		o.Max = o.Min
	}
	return o
}

// Point is one (qps, concurrency) observation.
type Point struct {
	QPS         float64
	Concurrency int
}

// Result is the outcome of a squeeze run.
type Result struct {
	BestQPS         float64
	BestConcurrency int
	// History is populated only under ReportExtended, newest first
	// (spec.md §3 "Squeeze history").
	History []Point
}

// Run drives job through ascending concurrency levels per spec.md
// §4.4's state machine, returning the saturation knee.
func Run(ctx context.Context, j *job.Job, opts Options) (Result, error) {
	opts = opts.WithDefaults()

	var (
		current  = opts.Min
		bestQPS  = -1.0
		bestConc = opts.Min
		history  []Point
	)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if err := j.SetConcurrency(ctx, current); err != nil {
			return Result{}, bgerr.Wrap(bgerr.KindInvalidConfig, "squeeze: set_concurrency failed", err)
		}

		results, err := sampler.PerformBenchmark(ctx, []counter.Handle{j.Counter()}, opts.Sampler)
		if err != nil {
			return Result{}, err
		}
		qps := results[0].Mean

		point := Point{QPS: qps, Concurrency: current}
		history = append([]Point{point}, history...)
		opts.Logger.Debug().Int("concurrency", current).Float64("qps", qps).Msg("squeeze step")

		if qps > bestQPS {
			bestQPS = qps
			bestConc = current
		} else if current-bestConc > opts.Threshold {
			break
		}
		current++

		if current > opts.Max {
			break
		}
	}

	res := Result{BestQPS: bestQPS, BestConcurrency: bestConc}
	if opts.Report == ReportExtended {
		res.History = history
	}
	return res, nil
}
