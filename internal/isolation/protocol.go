package isolation

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/agutierrez/benchgo/internal/codespec"
	"github.com/agutierrez/benchgo/internal/sampler"
	"github.com/agutierrez/benchgo/internal/squeeze"
)

// msgKind tags each line of the control protocol, the same way the
// teacher's http10.ParseRequest dispatches on a request-line's method
// before reading the rest of the message.
type msgKind string

const (
	msgRun  msgKind = "run"
	msgDone msgKind = "done"
	msgFail msgKind = "fail"
	msgStop msgKind = "stop"
)

// runRequest is the line sent to a worker process to execute one
// benchmark. squeezeOptions is nil unless squeeze mode is requested.
type runRequest struct {
	Kind           msgKind          `json:"kind"`
	Code           codespec.Hooks   `json:"code"`
	Concurrency    int              `json:"concurrency"`
	Sampler        sampler.Options  `json:"sampler"`
	SqueezeOptions *squeeze.Options `json:"squeeze_options,omitempty"`
}

// runResponse is the line a worker process writes back: either a
// completed RunResult (Kind == msgDone) or an error detail (Kind ==
// msgFail).
type runResponse struct {
	Kind   msgKind   `json:"kind"`
	Result RunResult `json:"result,omitempty"`
	Error  string    `json:"error,omitempty"`
}

var errMalformedLine = errors.New("isolation: malformed control line")

// writeLine marshals v to JSON and writes it as one newline-terminated
// line, flushing immediately so the peer's blocking ReadString('\n')
// unblocks right away.
func writeLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("isolation: encode control line: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// readLine reads one newline-terminated control line and decodes it
// into v. Mirrors the teacher's http10.ParseRequest loop: read to '\n',
// reject anything that doesn't end in the expected terminator.
func readLine(r *bufio.Reader, v any) error {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return io.EOF
		}
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		return errMalformedLine
	}
	return json.Unmarshal([]byte(line), v)
}
