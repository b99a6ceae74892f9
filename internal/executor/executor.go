// Package executor implements the Runner Executor (spec.md §4.5): the
// thin coordinator that builds one Job per code fragment, invokes the
// Sampler or the Squeezer, and tears every Job down on every exit path.
// Adapted from the teacher's internal/jobs.Manager (job registry,
// lifecycle bookkeeping) generalized from "one HTTP task submitted to a
// shared pool" to "a batch of Jobs built, measured, and jointly retired
// around a single benchmark invocation."
package executor

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agutierrez/benchgo/internal/bgerr"
	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/counter"
	"github.com/agutierrez/benchgo/internal/isolation"
	"github.com/agutierrez/benchgo/internal/job"
	"github.com/agutierrez/benchgo/internal/sampler"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// RunOptions carries the options shared by every code fragment in one
// invocation: concurrency for non-squeeze runs, sampler tuning, and
// isolation routing.
type RunOptions struct {
	Concurrency int // default 1, ignored when SqueezeOptions is set
	Sampler     sampler.Options
	Isolated    bool
	Logger      zerolog.Logger
}

// Row is one code fragment's result, ready for formatting.
type Row struct {
	Name        string
	ID          string // the underlying Job's stamped identifier
	Mean        float64
	Samples     []float64
	Concurrency int
	Squeeze     *squeeze.Result
}

// Executor builds Jobs, drives them through the Sampler or Squeezer,
// and guarantees teardown. The zero value is ready to use.
type Executor struct {
	Bridge isolation.Bridge // used only when RunOptions.Isolated is set
}

// Run executes a single code fragment (spec.md §4.5's run entry
// point). If squeezeOpts is nil, it returns the Sampler's result;
// otherwise the Squeezer's.
func (e *Executor) Run(ctx context.Context, code codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) (Row, error) {
	rows, err := e.run(ctx, []codespec.Hooks{code}, opts, squeezeOpts)
	if err != nil {
		return Row{}, err
	}
	return rows[0], nil
}

// Compare runs multiple code fragments under one synchronized Sampler
// invocation over the union of their counters (spec.md §4.5). Squeeze
// is not valid in comparison mode (spec.md §4.4 "Note").
func (e *Executor) Compare(ctx context.Context, codes []codespec.Hooks, opts RunOptions) ([]Row, error) {
	return e.run(ctx, codes, opts, nil)
}

func (e *Executor) run(ctx context.Context, codes []codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) ([]Row, error) {
	if squeezeOpts != nil && len(codes) > 1 {
		return nil, bgerr.New(bgerr.KindInvalidConfig, "squeeze does not support multiple code fragments")
	}

	if opts.Isolated {
		return e.runIsolated(ctx, codes, opts, squeezeOpts)
	}
	return e.runLocal(ctx, codes, opts, squeezeOpts)
}

// runLocal builds every Job before any measurement begins and stops
// all of them on every exit path, per spec.md §4.5's setup/teardown
// discipline.
func (e *Executor) runLocal(ctx context.Context, codes []codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) ([]Row, error) {
	jobs := make([]*job.Job, 0, len(codes))
	defer func() {
		for _, j := range jobs {
			_ = j.Stop(context.Background())
		}
	}()

	for _, code := range codes {
		j, err := job.Start(code)
		if err != nil {
			return nil, bgerr.Wrap(bgerr.KindInitFailed, "failed to construct job "+code.Name, err)
		}
		jobs = append(jobs, j)
	}

	if squeezeOpts != nil {
		squeezeOpts.Sampler = opts.Sampler
		squeezeOpts.Logger = opts.Logger
		res, err := squeeze.Run(ctx, jobs[0], *squeezeOpts)
		if err != nil {
			return nil, err
		}
		return []Row{{
			Name:        jobs[0].Name(),
			ID:          jobs[0].ID(),
			Mean:        res.BestQPS,
			Concurrency: res.BestConcurrency,
			Squeeze:     &res,
		}}, nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for _, j := range jobs {
		if err := j.SetConcurrency(ctx, concurrency); err != nil {
			return nil, bgerr.Wrap(bgerr.KindWorkerInitFailed, "failed to reach concurrency for "+j.Name(), err)
		}
	}

	handles := make([]counter.Handle, len(jobs))
	for i, j := range jobs {
		handles[i] = j.Counter()
	}

	results, err := sampler.PerformBenchmark(ctx, handles, opts.Sampler)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(jobs))
	for i, j := range jobs {
		rows[i] = Row{
			Name:        j.Name(),
			ID:          j.ID(),
			Mean:        results[i].Mean,
			Samples:     results[i].Samples,
			Concurrency: concurrency,
		}
	}
	return rows, nil
}

// runIsolated forwards each fragment to its own remote runtime handle
// obtained from the Isolation Bridge (spec.md §4.6), skipping the local
// path entirely. Every handle is shut down regardless of outcome.
func (e *Executor) runIsolated(ctx context.Context, codes []codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) ([]Row, error) {
	if e.Bridge == nil {
		return nil, bgerr.New(bgerr.KindIsolationStart, "isolation requested but no bridge configured")
	}

	handles, err := e.Bridge.Prepare(ctx, len(codes))
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindIsolationStart, "failed to prepare isolation runtimes", err)
	}
	defer func() {
		for _, h := range handles {
			_ = h.Shutdown(context.Background())
		}
	}()

	rows := make([]Row, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i := range codes {
		i := i
		g.Go(func() error {
			res, err := handles[i].Run(gctx, codes[i], isolation.RunOptions{
				Concurrency: opts.Concurrency,
				Sampler:     opts.Sampler,
			}, squeezeOpts)
			if err != nil {
				return err
			}
			rows[i] = Row{
				Name:        res.Name,
				ID:          res.ID,
				Mean:        res.Mean,
				Samples:     res.Samples,
				Concurrency: res.Concurrency,
				Squeeze:     res.Squeeze,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
