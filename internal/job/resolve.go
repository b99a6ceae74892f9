package job

import (
	"context"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/script"
	"github.com/agutierrez/benchgo/internal/workload"
)

// resolvedStep is one executable unit: either a built-in workload.Func
// call or a fallback call into a worker's private script.Runtime.
type resolvedStep struct {
	builtin workload.Func
	triple  codespec.Triple
}

// resolvedBody is a codespec.Body prepared once (at Job.Start) into a
// form that can be invoked many times per second
// without re-parsing or re-resolving the builtin registry.
type resolvedBody struct {
	program *script.Program // set only for KindExpression
	steps   []resolvedStep  // set for KindTriple (len 1) and KindTrace (len N)
}

// resolveBody prepares body for repeated execution. Structured triples
// are resolved against the built-in registry first; an unresolved
// module name falls through to the worker's script runtime, evaluated
// as a global function call each invocation.
func resolveBody(body *codespec.Body) (resolvedBody, error) {
	if body == nil {
		return resolvedBody{}, nil
	}
	switch body.Kind {
	case codespec.KindExpression:
		p, err := script.Compile(body.Expression)
		if err != nil {
			return resolvedBody{}, err
		}
		return resolvedBody{program: p}, nil

	case codespec.KindTriple:
		step, err := resolveStep(body.Triple)
		if err != nil {
			return resolvedBody{}, err
		}
		return resolvedBody{steps: []resolvedStep{step}}, nil

	case codespec.KindTrace:
		steps := make([]resolvedStep, 0, len(body.Trace))
		for _, tr := range body.Trace {
			step, err := resolveStep(tr)
			if err != nil {
				return resolvedBody{}, err
			}
			steps = append(steps, step)
		}
		return resolvedBody{steps: steps}, nil

	default:
		return resolvedBody{}, nil
	}
}

func resolveStep(tr codespec.Triple) (resolvedStep, error) {
	fn, ok, err := workload.Lookup(tr.Module, tr.Function)
	if err != nil {
		return resolvedStep{}, err
	}
	if ok {
		return resolvedStep{builtin: fn, triple: tr}, nil
	}
	return resolvedStep{triple: tr}, nil
}

// invoke executes a resolved body once on rt, the invoking worker's
// private script runtime.
func (rb resolvedBody) invoke(ctx context.Context, rt *script.Runtime) (any, error) {
	if rb.program != nil {
		return rt.Run(rb.program)
	}
	var last any
	for _, step := range rb.steps {
		var (
			v   any
			err error
		)
		if step.builtin != nil {
			v, err = step.builtin(ctx, step.triple.Args)
		} else {
			v, err = rt.CallGlobal(step.triple.Module, step.triple.Function, step.triple.Args)
		}
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// isZero reports whether rb carries no work (body was nil / optional
// hook omitted).
func (rb resolvedBody) isZero() bool {
	return rb.program == nil && rb.steps == nil
}
