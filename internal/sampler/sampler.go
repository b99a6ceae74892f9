// Package sampler implements the steady-state throughput reader
// (spec.md §4.3): it reads counters at fixed wall-clock intervals,
// discards a warmup period, and returns per-sample deltas or their
// mean, optionally gated on coefficient of variation. Synchronized
// across jobs via one shared sleep per interval, so comparison-mode
// jobs sharing a runtime are sampled within the same window of each
// other (spec.md §5).
package sampler

import (
	"context"
	"time"

	"github.com/agutierrez/benchgo/internal/counter"
	"github.com/rs/zerolog"
)

// Report selects whether PerformBenchmark returns one mean per job or
// the full retained sample vector.
type Report int

const (
	ReportMean Report = iota
	ReportExtended
)

// Options mirrors spec.md §4.3's perform_benchmark options.
type Options struct {
	SampleDuration time.Duration // default 1s
	Warmup         int           // default 0 intervals
	Samples        int           // default 3 retained intervals
	CV             *float64      // optional CV gate
	Report         Report
	Logger         zerolog.Logger `json:"-"`
}

// WithDefaults fills zero-valued fields with spec.md's documented
// defaults.
func (o Options) WithDefaults() Options {
	if o.SampleDuration <= 0 {
		o.SampleDuration = time.Second
	}
	if o.Samples <= 0 {
		o.Samples = 3
	}
	return o
}

// Result is one job's sampled rate(s): Mean always reflects the
// window's average (even under ReportExtended), Samples is populated
// only under ReportExtended, newest-last.
type Result struct {
	Mean    float64
	Samples []float64
}

// PerformBenchmark samples counters at fixed intervals until, per job,
// `samples` retained per-interval rates have been collected (and, if CV
// is set, until every job's window simultaneously satisfies the CV
// bound). See spec.md §4.3 for the full algorithm description.
func PerformBenchmark(ctx context.Context, counters []counter.Handle, opts Options) ([]Result, error) {
	opts = opts.WithDefaults()

	if err := sleepCtx(ctx, time.Duration(opts.Warmup)*opts.SampleDuration); err != nil {
		return nil, err
	}

	n := len(counters)
	prevVal := make([]uint64, n)
	prevTime := make([]time.Time, n)
	now := time.Now()
	for i, c := range counters {
		prevVal[i] = c.Load()
		prevTime[i] = now
	}

	windows := make([][]float64, n)
	cvIgnored := opts.CV == nil || opts.Samples <= 1 // spec.md §4.3 edge case

	for {
		if err := sleepCtx(ctx, opts.SampleDuration); err != nil {
			return nil, err
		}
		sampleTime := time.Now()
		for i, c := range counters {
			v := c.Load()
			elapsed := sampleTime.Sub(prevTime[i]).Seconds()
			var rate float64
			if elapsed > 0 {
				rate = float64(v-prevVal[i]) / elapsed
			}
			windows[i] = append(windows[i], rate)
			prevVal[i] = v
			prevTime[i] = sampleTime
		}

		if !allReached(windows, opts.Samples) {
			continue
		}

		if cvIgnored {
			break
		}

		if allWithinCV(windows, *opts.CV, opts.Logger) {
			break
		}

		for i := range windows {
			windows[i] = windows[i][1:]
		}
	}

	out := make([]Result, n)
	for i, w := range windows {
		mean, _ := meanStd(w)
		r := Result{Mean: mean}
		if opts.Report == ReportExtended {
			r.Samples = append([]float64(nil), w...)
		}
		out[i] = r
	}
	return out, nil
}

func allReached(windows [][]float64, samples int) bool {
	for _, w := range windows {
		if len(w) < samples {
			return false
		}
	}
	return true
}

func allWithinCV(windows [][]float64, threshold float64, logger zerolog.Logger) bool {
	ok := true
	for i, w := range windows {
		cv := coefficientOfVariation(w)
		logger.Debug().Int("job", i).Float64("cv", cv).Msg("sample window cv")
		if cv > threshold {
			ok = false
		}
	}
	return ok
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
