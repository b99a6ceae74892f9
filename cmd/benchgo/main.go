// Command benchgo is the CLI entry point for the benchmark core
// (spec.md §6). It parses a positional list of code fragments plus the
// documented flag surface via cobra/pflag, builds the corresponding
// Executor invocation, and renders the result table. Wiring mirrors the
// teacher's cmd/server/main.go: flags resolve (with env-var fallback
// for the server's port; this CLI consumes none, per spec.md §6),
// signal handling tears down cleanly, and the real work is delegated
// to internal packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agutierrez/benchgo/internal/bgerr"
	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/executor"
	"github.com/agutierrez/benchgo/internal/format"
	"github.com/agutierrez/benchgo/internal/isolation"
	"github.com/agutierrez/benchgo/internal/obslog"
	"github.com/agutierrez/benchgo/internal/sampler"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// hookFlag is a repeatable "INDEX=CODE" value, the idiomatic pflag
// shape for spec.md §6's "--init N CODE"-style options: pflag flags
// consume exactly one token per occurrence, so the index and code are
// packed into one argument rather than two (documented in DESIGN.md).
type hookFlag struct {
	index int
	code  string
}

type hookFlags []hookFlag

func (h *hookFlags) String() string { return "" }

func (h *hookFlags) Set(v string) error {
	idx, code, ok := splitHookFlag(v)
	if !ok {
		return fmt.Errorf("expected INDEX=CODE, got %q", v)
	}
	*h = append(*h, hookFlag{index: idx, code: code})
	return nil
}

func (h *hookFlags) Type() string { return "hookFlag" }

func splitHookFlag(v string) (int, string, bool) {
	for i := 0; i < len(v); i++ {
		if v[i] == '=' {
			var idx int
			if _, err := fmt.Sscanf(v[:i], "%d", &idx); err != nil {
				return 0, "", false
			}
			return idx, v[i+1:], true
		}
	}
	return 0, "", false
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == isolation.WorkerFlag {
		if err := runWorkerMode(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "benchgo:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		concurrency    int
		sampleDuration int64
		samples        int
		warmup         int
		cv             float64
		cvSet          bool
		verbose        bool
		isolated       bool
		squeezeMode    bool
		min            int
		max            int
		threshold      int
		profile        bool
		initHooks      hookFlags
		doneHooks      hookFlags
		initRunners    hookFlags
	)

	cmd := &cobra.Command{
		Use:   "benchgo [OPTIONS] CODE1 [CODE2 ...]",
		Short: "Micro-benchmark and concurrency-saturation harness for code snippets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := obslog.New(verbose, os.Stderr)

			if profile {
				return bgerr.New(bgerr.KindNotImplemented, "profiler front-end is out of core scope")
			}

			codes, err := buildCodes(args, initHooks, doneHooks, initRunners)
			if err != nil {
				return err
			}

			if squeezeMode && len(codes) > 1 {
				return bgerr.New(bgerr.KindInvalidConfig, "squeeze does not support multiple code fragments")
			}

			sOpts := sampler.Options{
				SampleDuration: time.Duration(sampleDuration) * time.Millisecond,
				Warmup:         warmup,
				Samples:        samples,
				Report:         sampler.ReportMean,
				Logger:         logger,
			}
			if cvSet {
				sOpts.CV = &cv
			}

			runOpts := executor.RunOptions{
				Concurrency: concurrency,
				Sampler:     sOpts,
				Isolated:    isolated,
				Logger:      logger,
			}

			ex := &executor.Executor{}
			if isolated {
				ex.Bridge = &isolation.ProcessBridge{}
			}

			ctx, cancel := signalContext()
			defer cancel()

			var rows []executor.Row
			if squeezeMode {
				sq := squeeze.Options{Min: min, Max: max, Threshold: threshold, Logger: logger}
				row, err := ex.Run(ctx, codes[0], runOpts, &sq)
				if err != nil {
					return err
				}
				rows = []executor.Row{row}
			} else {
				rows, err = ex.Compare(ctx, codes, runOpts)
				if err != nil {
					return err
				}
			}

			codeByName := make(map[string]string, len(args))
			for i, a := range args {
				name := codes[i].Name
				codeByName[name] = a
			}
			for _, row := range rows {
				logger.Debug().Str("id", row.ID).Str("name", row.Name).Msg("result")
			}
			format.Table(cmd.OutOrStdout(), rows, codeByName)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&concurrency, "concurrency", "c", 1, "worker count for non-squeeze runs")
	flags.Int64VarP(&sampleDuration, "sample_duration", "d", 1000, "interval between counter reads, in milliseconds")
	flags.IntVarP(&samples, "samples", "s", 3, "retained samples")
	flags.IntVarP(&warmup, "warmup", "w", 0, "warmup samples")
	flags.Float64Var(&cv, "cv", 0, "coefficient-of-variation gate")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable progress logging to stderr")
	flags.BoolVarP(&isolated, "isolated", "i", false, "run each fragment in a fresh runtime")
	flags.BoolVarP(&squeezeMode, "squeeze", "q", false, "enable squeeze mode")
	flags.IntVar(&min, "min", 1, "squeeze start")
	flags.IntVar(&max, "max", 4096, "squeeze cap")
	flags.IntVarP(&threshold, "threshold", "t", 3, "squeeze knee threshold")
	flags.BoolVarP(&profile, "profile", "p", false, "run profiler instead of benchmark (out of core)")
	flags.VarP(&initHooks, "init", "", "attach init hook: INDEX=CODE")
	flags.VarP(&doneHooks, "done", "", "attach done hook: INDEX=CODE")
	flags.VarP(&initRunners, "init_runner", "", "attach init_runner hook: INDEX=CODE")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cvSet = cmd.Flags().Changed("cv")
		return nil
	}

	return cmd
}

// buildCodes parses positional code arguments and layers any
// --init/--done/--init_runner hooks onto the matching fragment by
// index (spec.md §6).
func buildCodes(args []string, initHooks, doneHooks, initRunners hookFlags) ([]codespec.Hooks, error) {
	codes := make([]codespec.Hooks, len(args))
	for i, a := range args {
		body, err := codespec.ParseCodeArg(a)
		if err != nil {
			return nil, err
		}
		codes[i] = codespec.Hooks{Name: fmt.Sprintf("fragment-%d", i), Runner: body}
	}
	attach := func(hooks hookFlags, set func(*codespec.Hooks, *codespec.Body)) error {
		for _, h := range hooks {
			if h.index < 0 || h.index >= len(codes) {
				return bgerr.New(bgerr.KindArgParse, fmt.Sprintf("hook index %d out of range", h.index))
			}
			body, err := codespec.ParseCodeArg(h.code)
			if err != nil {
				return err
			}
			set(&codes[h.index], &body)
		}
		return nil
	}
	if err := attach(initHooks, func(h *codespec.Hooks, b *codespec.Body) { h.Init = b }); err != nil {
		return nil, err
	}
	if err := attach(doneHooks, func(h *codespec.Hooks, b *codespec.Body) { h.Done = b }); err != nil {
		return nil, err
	}
	if err := attach(initRunners, func(h *codespec.Hooks, b *codespec.Body) { h.InitRunner = b }); err != nil {
		return nil, err
	}
	return codes, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, the
// same shutdown trigger the teacher's cmd/server/main.go listens for.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}

// runWorkerMode is the isolation-worker side of this same binary
// (spec.md §4.6 / §9 "Isolation"): it serves the control protocol over
// stdin/stdout, running each requested benchmark locally via the same
// Executor the interactive CLI uses.
func runWorkerMode() error {
	ex := &executor.Executor{}
	run := func(ctx context.Context, code codespec.Hooks, opts isolation.RunOptions, sq *squeeze.Options) (isolation.RunResult, error) {
		row, err := ex.Run(ctx, code, executor.RunOptions{Concurrency: opts.Concurrency, Sampler: opts.Sampler}, sq)
		if err != nil {
			return isolation.RunResult{}, err
		}
		return isolation.RunResult{
			Name:        row.Name,
			ID:          row.ID,
			Mean:        row.Mean,
			Samples:     row.Samples,
			Concurrency: row.Concurrency,
			Squeeze:     row.Squeeze,
		}, nil
	}
	return isolation.ServeWorker(context.Background(), os.Stdin, os.Stdout, run)
}
