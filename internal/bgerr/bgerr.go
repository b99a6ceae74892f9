// Package bgerr defines the typed error kinds surfaced by the benchmark
// core, mirroring the stable-code/human-detail shape of the teacher's
// resp.ErrObj but expressed as wrapped Go errors.
package bgerr

import "fmt"

// Kind identifies one of the error categories named in the benchmark
// core's error handling design.
type Kind string

const (
	KindArgParse            Kind = "arg_parse_error"
	KindInitFailed          Kind = "init_failed"
	KindWorkerInitFailed    Kind = "worker_init_failed"
	KindRunnerFault         Kind = "runner_fault"
	KindIsolationStart      Kind = "isolation_start_failed"
	KindIsolationTimeout    Kind = "isolation_timeout"
	KindInvalidConfig       Kind = "invalid_configuration"
	KindNotImplemented      Kind = "not_implemented"
)

// Error is the concrete error type returned across package boundaries.
// Code is stable and machine-checkable; Detail is the human message.
type Error struct {
	Code   Kind
	Detail string
	Err    error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Code, so callers
// can use errors.Is(err, bgerr.New(KindInitFailed, "")) as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New constructs an *Error with no wrapped cause.
func New(code Kind, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrap constructs an *Error wrapping cause.
func Wrap(code Kind, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Err: cause}
}

// sentinels usable with errors.Is for kind-only matching.
var (
	ErrArgParse         = New(KindArgParse, "")
	ErrInitFailed       = New(KindInitFailed, "")
	ErrWorkerInitFailed = New(KindWorkerInitFailed, "")
	ErrRunnerFault      = New(KindRunnerFault, "")
	ErrIsolationStart   = New(KindIsolationStart, "")
	ErrIsolationTimeout = New(KindIsolationTimeout, "")
	ErrInvalidConfig    = New(KindInvalidConfig, "")
	ErrNotImplemented   = New(KindNotImplemented, "")
)
