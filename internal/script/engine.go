// Package script embeds github.com/dop251/goja as the managed-runtime
// stand-in design note 9 requires for inline-expression runner bodies
// (grounded: joeycumines-go-utilpkg's goja-eventloop, goja-grpc,
// goja-protobuf and goja-protojson modules all embed goja the same way).
//
// goja.Runtime is not safe for concurrent use by more than one
// goroutine; each worker therefore owns a private Runtime, while the
// compiled *goja.Program produced by Compile is immutable and shared
// across every worker's Runtime, the same way the teacher's sched.Pool
// shares one TaskFunc across many worker goroutines.
package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// Program is a compiled, immutable script body, safe to share across
// many Runtimes.
type Program struct {
	prog *goja.Program
	src  string
}

// Compile parses source once. The result may be run repeatedly, and
// concurrently, across independent Runtimes.
func Compile(source string) (*Program, error) {
	p, err := goja.Compile("<runner>", source, false)
	if err != nil {
		return nil, fmt.Errorf("script: compile failed: %w", err)
	}
	return &Program{prog: p, src: source}, nil
}

// Runtime is a single goja.Runtime, owned exclusively by one worker
// goroutine for its entire lifetime.
type Runtime struct {
	rt *goja.Runtime
}

// NewRuntime constructs a fresh, private JavaScript runtime.
func NewRuntime() *Runtime {
	return &Runtime{rt: goja.New()}
}

// Run executes p's compiled source on this Runtime and returns the
// exported value of its completion value (the last expression
// statement's result, matching the "runner body is one expression"
// contract of spec.md §3).
func (r *Runtime) Run(p *Program) (any, error) {
	v, err := r.rt.RunProgram(p.prog)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.Export(), nil
}

// Set binds a Go value into the runtime's global scope, used to expose
// suite/worker state (S, W) to subsequent hook evaluations.
func (r *Runtime) Set(name string, value any) error {
	return r.rt.Set(name, value)
}

// Get reads a global by name, exported to a plain Go value.
func (r *Runtime) Get(name string) any {
	v := r.rt.Get(name)
	if v == nil {
		return nil
	}
	return v.Export()
}

// CallGlobal invokes a global JavaScript function by name with args,
// used to dispatch a structured Triple whose module does not match a
// built-in workload — the module/function pair is expected to resolve
// to a global function (or a global object's method, "module.function")
// defined earlier on this same Runtime. A Job runs its init hook on a
// separate Runtime, so for a worker only globals defined by its
// init_runner hook are visible here.
func (r *Runtime) CallGlobal(module, function string, args map[string]string) (any, error) {
	var target goja.Value
	var thisVal goja.Value = goja.Undefined()
	if function == "" {
		target = r.rt.Get(module)
	} else {
		obj := r.rt.Get(module)
		if obj == nil || goja.IsUndefined(obj) {
			return nil, fmt.Errorf("script: unresolved global %q", module)
		}
		o := obj.ToObject(r.rt)
		thisVal = obj
		target = o.Get(function)
	}

	fn, ok := goja.AssertFunction(target)
	if !ok {
		name := module
		if function != "" {
			name = module + "." + function
		}
		return nil, fmt.Errorf("script: %q is not a callable global", name)
	}

	argObj := r.rt.NewObject()
	for k, v := range args {
		_ = argObj.Set(k, v)
	}
	v, err := fn(thisVal, argObj)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}
