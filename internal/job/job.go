// Package job implements the per-benchmark control plane (spec.md §4.2):
// a Job owns one Counter and a dynamic pool of worker goroutines, runs
// the user's init/init_runner/runner/done lifecycle exactly once per
// appropriate scope, and services SetConcurrency. Adapted from the
// teacher's internal/jobs (status/lifecycle bookkeeping) and
// internal/sched (worker-pool mechanics, atomic busy counting) —
// generalized from "HTTP task dispatched to a fixed worker pool" to
// "tight per-worker loop driving an arbitrary runner body".
package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agutierrez/benchgo/internal/bgerr"
	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/counter"
	"github.com/agutierrez/benchgo/internal/idgen"
	"github.com/agutierrez/benchgo/internal/script"
)

// FaultHandler is invoked when a worker's runner body returns an error
// and the worker terminates. workerIndex is the worker's position at
// the time of death (not a stable identity across resizes).
//
// Open question (spec.md §9, design note 9): the source lets a dying
// worker vanish silently. This implementation surfaces the fault
// instead of guessing silently — see SPEC_FULL.md §6 — but does not
// treat it as fatal to the Job: only Init/InitRunner failures abort.
type FaultHandler func(workerIndex int, err error)

// Job is the exclusive owner of one Counter, its live worker set, its
// suite state, and its configured code. See spec.md §3 "Job" for the
// invariants this type must uphold.
type Job struct {
	name string
	id   string // stamped at Start, correlates this Job's log lines and faults

	mu      sync.Mutex // serializes SetConcurrency/Stop, per spec.md §5
	workers []*worker

	ctr counter.Counter

	runnerBody resolvedBody
	initBody   resolvedBody
	initRunner resolvedBody
	doneBody   resolvedBody

	suiteState any

	onFault FaultHandler

	stopped bool
}

type worker struct {
	stop atomic.Bool
	dead atomic.Bool // set by runWorker just before it exits on a runner fault
	done chan struct{}
}

// Start constructs a Job and evaluates Init synchronously, per
// spec.md §4.2. No workers are started; call SetConcurrency to spawn
// them. Fails with bgerr.KindInitFailed if Init raises.
func Start(code codespec.Hooks) (*Job, error) {
	runnerBody, err := resolveBody(&code.Runner)
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindArgParse, "failed to resolve runner body", err)
	}
	initBody, err := resolveBody(code.Init)
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindArgParse, "failed to resolve init body", err)
	}
	initRunnerBody, err := resolveBody(code.InitRunner)
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindArgParse, "failed to resolve init_runner body", err)
	}
	doneBody, err := resolveBody(code.Done)
	if err != nil {
		return nil, bgerr.Wrap(bgerr.KindArgParse, "failed to resolve done body", err)
	}

	j := &Job{
		name:       code.Name,
		id:         idgen.New(),
		runnerBody: runnerBody,
		initBody:   initBody,
		initRunner: initRunnerBody,
		doneBody:   doneBody,
	}

	if !initBody.isZero() {
		rt := script.NewRuntime()
		v, err := initBody.invoke(context.Background(), rt)
		if err != nil {
			return nil, bgerr.Wrap(bgerr.KindInitFailed, "init hook raised", err)
		}
		j.suiteState = v
	}

	return j, nil
}

// Name returns the job's display name, if one was given.
func (j *Job) Name() string { return j.name }

// ID returns the Job's stamped identifier, minted once at Start and
// stable for the Job's lifetime — used to correlate this Job's faults
// and results across verbose log lines and comparison-mode output.
func (j *Job) ID() string { return j.id }

// Counter returns a read-only handle over the Job's atomic tally.
func (j *Job) Counter() counter.Handle {
	return counter.HandleOf(&j.ctr)
}

// OnWorkerFault registers a callback invoked whenever a worker's runner
// body raises and that worker terminates (see FaultHandler).
func (j *Job) OnWorkerFault(h FaultHandler) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onFault = h
}

// Concurrency returns the current live worker count.
func (j *Job) Concurrency() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reapDeadLocked()
	return len(j.workers)
}

// SetConcurrency transitions the live worker count to exactly n
// (spec.md §4.2). Spawning a worker evaluates InitRunner synchronously
// on the calling goroutine before the worker is considered live, so a
// WorkerInitFailed error aborts the whole resize with no partial
// change in count beyond what succeeded before the failure.
func (j *Job) SetConcurrency(ctx context.Context, n int) error {
	if n < 0 {
		return bgerr.New(bgerr.KindArgParse, "concurrency must be >= 0")
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.stopped {
		return bgerr.New(bgerr.KindInvalidConfig, "job already stopped")
	}

	j.reapDeadLocked()
	current := len(j.workers)
	switch {
	case n > current:
		for i := current; i < n; i++ {
			w, err := j.spawnWorkerLocked(i)
			if err != nil {
				return bgerr.Wrap(bgerr.KindWorkerInitFailed, "init_runner raised", err)
			}
			j.workers = append(j.workers, w)
		}
	case n < current:
		surplus := j.workers[n:]
		j.workers = j.workers[:n]
		for _, w := range surplus {
			w.stop.Store(true)
		}
		for _, w := range surplus {
			<-w.done
		}
	}
	return nil
}

// reapDeadLocked drops workers that terminated on a runner fault from
// j.workers, so len(j.workers) reflects the true live count (spec.md
// §4.2's failure policy: a faulted worker decrements the nominal live
// count). Must be called with j.mu held.
func (j *Job) reapDeadLocked() {
	live := j.workers[:0]
	for _, w := range j.workers {
		if !w.dead.Load() {
			live = append(live, w)
		}
	}
	j.workers = live
}

func (j *Job) spawnWorkerLocked(index int) (*worker, error) {
	rt := script.NewRuntime()

	var workerState any = j.suiteState
	if !j.initRunner.isZero() {
		if j.suiteState != nil {
			_ = rt.Set("S", j.suiteState)
		}
		v, err := j.initRunner.invoke(context.Background(), rt)
		if err != nil {
			return nil, err
		}
		workerState = v
	}
	if workerState != nil {
		_ = rt.Set("W", workerState)
	}

	w := &worker{done: make(chan struct{})}
	go j.runWorker(w, index, rt)
	return w, nil
}

// runWorker is the per-worker loop of spec.md §4.2: invoke runner, then
// increment the counter, then check the stop flag — in that order, so
// a stopping worker always completes its current invocation.
func (j *Job) runWorker(w *worker, index int, rt *script.Runtime) {
	defer close(w.done)
	ctx := context.Background()
	for {
		_, err := j.runnerBody.invoke(ctx, rt)
		if err != nil {
			w.dead.Store(true)
			j.reportFault(index, err)
			return
		}
		j.ctr.Inc()
		if w.stop.Load() {
			return
		}
	}
}

func (j *Job) reportFault(index int, err error) {
	j.mu.Lock()
	h := j.onFault
	j.mu.Unlock()
	if h != nil {
		h(index, bgerr.Wrap(bgerr.KindRunnerFault, fmt.Sprintf("job %s worker %d", j.id, index), err))
	}
}

// Stop transitions to zero workers, evaluates Done once, then releases
// resources. Idempotent: a second call is a no-op (spec.md §4.2).
func (j *Job) Stop(ctx context.Context) error {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return nil
	}
	j.mu.Unlock()

	if err := j.SetConcurrency(ctx, 0); err != nil {
		return err
	}

	j.mu.Lock()
	already := j.stopped
	j.stopped = true
	j.mu.Unlock()
	if already {
		return nil
	}

	if !j.doneBody.isZero() {
		rt := script.NewRuntime()
		if j.suiteState != nil {
			_ = rt.Set("S", j.suiteState)
		}
		if _, err := j.doneBody.invoke(ctx, rt); err != nil {
			return bgerr.Wrap(bgerr.KindInitFailed, "done hook raised", err)
		}
	}
	return nil
}
