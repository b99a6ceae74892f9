package isolation

import (
	"bufio"
	"context"
	"io"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// RunFunc performs one local benchmark, the same shape as
// executor.Executor.Run. ServeWorker takes this as a parameter (rather
// than depending on package executor directly) to avoid an import
// cycle, since executor depends on isolation for the Bridge interface.
type RunFunc func(ctx context.Context, code codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) (RunResult, error)

// ServeWorker is the child-process side of ProcessBridge: it reads
// control requests from r and writes responses to w until a stop
// message arrives or r is closed. Invoked by cmd/benchgo when started
// with WorkerFlag.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, run RunFunc) error {
	br := bufio.NewReader(r)
	for {
		var req runRequest
		if err := readLine(br, &req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch req.Kind {
		case msgStop:
			return nil
		case msgRun:
			res, err := run(ctx, req.Code, RunOptions{Concurrency: req.Concurrency, Sampler: req.Sampler}, req.SqueezeOptions)
			var resp runResponse
			if err != nil {
				resp = runResponse{Kind: msgFail, Error: err.Error()}
			} else {
				resp = runResponse{Kind: msgDone, Result: res}
			}
			if err := writeLine(w, resp); err != nil {
				return err
			}
		default:
			if err := writeLine(w, runResponse{Kind: msgFail, Error: "unknown control message"}); err != nil {
				return err
			}
		}
	}
}
