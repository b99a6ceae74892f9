// Package workload supplies the closed set of built-in, named runner
// bodies (design note 9, option (c)), adapted from the teacher's
// internal/handlers CPU/IO/basic handlers: the HTTP/JSON response shell
// is stripped down to a plain (result, error) contract so these can run
// directly inside a Job's worker loop.
package workload

import (
	"context"
	"fmt"

	"github.com/agutierrez/benchgo/internal/codespec"
)

// Func is one built-in workload invocation. It receives the triple's
// parsed arguments and returns an arbitrary result or an error. As a
// runner, its result is discarded and an error terminates the invoking
// worker (spec.md §4.2 "Failure inside runner"); as an init or
// init_runner hook, its result becomes the suite or worker state.
type Func func(ctx context.Context, args codespec.Args) (any, error)

// entry is one registered (module, function) pair; function "" is the
// module's default entry, used when a Triple omits Function.
type entry struct {
	module   string
	function string
}

var registry = map[entry]Func{}

// Register adds fn under (module, function) to the built-in registry.
// Intended to be called from package init funcs only.
func Register(module, function string, fn Func) {
	registry[entry{module, function}] = fn
}

// Lookup resolves a Triple's (module, function) against the built-in
// registry. ok is false if module is not a recognized builtin at all,
// letting the caller fall through to the script engine; if module is
// recognized but function is not, an error is returned instead, since
// there's no more general fallback for an unrecognized builtin function.
func Lookup(module, function string) (fn Func, ok bool, err error) {
	if fn, found := registry[entry{module, function}]; found {
		return fn, true, nil
	}
	// module recognized under some other function name?
	recognized := false
	for e := range registry {
		if e.module == module {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, false, nil
	}
	return nil, true, fmt.Errorf("workload: unknown function %q for builtin module %q", function, module)
}
