package isolation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/agutierrez/benchgo/internal/bgerr"
	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// WorkerFlag is the hidden command-line flag this binary recognizes to
// enter worker mode instead of its normal CLI (see cmd/benchgo). A
// ProcessBridge child is just another invocation of the same
// executable, the same trick the teacher's internal/sched uses to keep
// worker code in the same binary as the dispatcher.
const WorkerFlag = "--isolation-worker"

// ProcessBridge spawns one child OS process per code fragment, each
// running this binary in worker mode, and drives it over the
// newline-delimited JSON control protocol on its stdin/stdout.
type ProcessBridge struct {
	// Exe is the path to this binary, used to spawn children.
	// Defaults to os.Args[0] if empty.
	Exe string
}

func (b *ProcessBridge) exePath() string {
	if b.Exe != "" {
		return b.Exe
	}
	return os.Args[0]
}

// Prepare spawns n child processes, each a fresh runtime instance
// (spec.md §4.6 requirement i: deterministic 1:1 mapping of fragments
// to runtimes).
func (b *ProcessBridge) Prepare(ctx context.Context, n int) ([]Handle, error) {
	handles := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		h, err := b.spawn(ctx)
		if err != nil {
			for _, started := range handles {
				_ = started.Shutdown(context.Background())
			}
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (b *ProcessBridge) spawn(ctx context.Context) (*processHandle, error) {
	cmd := exec.CommandContext(ctx, b.exePath(), WorkerFlag)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindIsolationStart, "failed to open worker stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindIsolationStart, "failed to open worker stdout", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, bgerr.Wrap(bgerr.KindIsolationStart, "failed to start isolation worker process", err)
	}

	return &processHandle{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// processHandle is one live child process, serialized: the control
// protocol is strictly request/response, one in flight at a time.
type processHandle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu sync.Mutex
}

func (h *processHandle) Run(ctx context.Context, code codespec.Hooks, opts RunOptions, squeezeOpts *squeeze.Options) (RunResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Every control call is bounded by ControlTimeout, derived from the
	// caller's context so an outer cancellation (e.g. SIGINT) also ends
	// it. The timeout covers the whole round trip, including the remote
	// benchmark itself: it is not separate from the benchmark duration,
	// and a remote run that takes longer than ControlTimeout fails with
	// KindIsolationTimeout.
	ctx, cancel := context.WithTimeout(ctx, ControlTimeout)
	defer cancel()

	req := runRequest{
		Kind:           msgRun,
		Code:           code,
		Concurrency:    opts.Concurrency,
		Sampler:        opts.Sampler,
		SqueezeOptions: squeezeOpts,
	}

	type outcome struct {
		resp runResponse
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		if err := writeLine(h.stdin, req); err != nil {
			done <- outcome{err: fmt.Errorf("isolation: write control request: %w", err)}
			return
		}
		var resp runResponse
		err := readLine(h.stdout, &resp)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return RunResult{}, bgerr.Wrap(bgerr.KindIsolationTimeout, "isolation control call failed", o.err)
		}
		if o.resp.Kind == msgFail {
			return RunResult{}, bgerr.New(bgerr.KindRunnerFault, "remote runtime reported: "+o.resp.Error)
		}
		return o.resp.Result, nil
	case <-ctx.Done():
		return RunResult{}, bgerr.Wrap(bgerr.KindIsolationTimeout, "isolation control call timed out", ctx.Err())
	}
}

func (h *processHandle) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_ = writeLine(h.stdin, runRequest{Kind: msgStop})
	_ = h.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- h.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = h.cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}
