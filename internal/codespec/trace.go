package codespec

import (
	"encoding/json"
	"os"

	"github.com/agutierrez/benchgo/internal/bgerr"
)

// traceEntry is the on-disk JSON shape of one recorded call: args may be
// given either as a pre-encoded "k=v&k2=v2" string or as a native JSON
// object, for convenience when hand-authoring trace fixtures.
type traceEntry struct {
	Module   string          `json:"module"`
	Function string          `json:"function"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// LoadTrace reads a JSON array of recorded (module, function, args)
// triples from path, to be replayed in order by a runner.
func LoadTrace(path string) ([]Triple, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []traceEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, bgerr.Wrap(bgerr.KindArgParse, "malformed trace file "+path, err)
	}
	out := make([]Triple, 0, len(entries))
	for _, e := range entries {
		tr := Triple{Module: e.Module, Function: e.Function, Args: Args{}}
		if len(e.Args) > 0 {
			args, err := decodeTraceArgs(e.Args)
			if err != nil {
				return nil, bgerr.Wrap(bgerr.KindArgParse, "malformed trace args in "+path, err)
			}
			tr.Args = args
		}
		out = append(out, tr)
	}
	return out, nil
}

func decodeTraceArgs(raw json.RawMessage) (Args, error) {
	// Try a native JSON object first.
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		return Args(m), nil
	}
	// Fall back to a pre-encoded query-string literal.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return ParseArgs(s), nil
}
