// Package isolation implements the Isolation Bridge contract (spec.md
// §4.6): running one benchmark per code fragment inside a freshly
// started runtime instance, discarded after use. ProcessBridge
// realizes this over child OS processes talking a newline-delimited
// JSON control protocol, adapted from the teacher's internal/http10
// line-oriented request reader.
package isolation

import (
	"context"
	"time"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/sampler"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// ControlTimeout bounds every remote control call (spec.md §4.6: "a
// bounded timeout, default 10 seconds per control call").
const ControlTimeout = 10 * time.Second

// RunOptions is the subset of executor.RunOptions forwarded across the
// bridge (declared independently here to avoid an import cycle with
// package executor, which depends on this package for Bridge).
type RunOptions struct {
	Concurrency int
	Sampler     sampler.Options
}

// RunResult mirrors executor.Row's shape, returned from a remote
// runtime in place of a locally-computed one.
type RunResult struct {
	Name        string
	ID          string // the remote Job's stamped identifier
	Mean        float64
	Samples     []float64
	Concurrency int
	Squeeze     *squeeze.Result
}

// Handle is one remote runtime instance, mapped 1:1 to a single code
// fragment for the duration of a benchmark (spec.md §4.6 requirement i).
type Handle interface {
	// Run executes code in the remote runtime with the given options,
	// bounded by ControlTimeout per control-plane round trip.
	Run(ctx context.Context, code codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) (RunResult, error)
	// Shutdown terminates the remote runtime. Always called exactly
	// once per handle, regardless of how the benchmark ended
	// (requirement ii: guaranteed shutdown).
	Shutdown(ctx context.Context) error
}

// Bridge prepares n runtime handles, one per code fragment.
type Bridge interface {
	Prepare(ctx context.Context, n int) ([]Handle, error)
}
