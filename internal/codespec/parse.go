package codespec

import (
	"strings"

	"github.com/agutierrez/benchgo/internal/bgerr"
)

// exprTerminator is the statement terminator that marks an inline
// expression body (spec.md §6: "ends with '.' ... or the target-language
// equivalent statement terminator"). This repo embeds JavaScript via
// goja, whose statement terminator is ';' (see SPEC_FULL.md §3.1).
const exprTerminator = ";"

// ParseCodeArg recognizes one of the three shapes a textual code
// argument may take and returns the corresponding Body. An argument that
// is neither a triple nor an expression is treated as a trace file path
// and loaded here via LoadTrace; a missing or malformed file is an
// ArgParse error.
func ParseCodeArg(raw string) (Body, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Body{}, bgerr.New(bgerr.KindArgParse, "empty code argument")
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		tr, err := parseTriple(trimmed)
		if err != nil {
			return Body{}, err
		}
		return Body{Kind: KindTriple, Triple: tr}, nil
	}

	if strings.HasSuffix(trimmed, exprTerminator) {
		return Body{Kind: KindExpression, Expression: trimmed}, nil
	}

	// Otherwise: a path to a file containing a serialized recorded trace.
	trace, err := LoadTrace(trimmed)
	if err != nil {
		return Body{}, bgerr.Wrap(bgerr.KindArgParse, "code argument is neither a {triple}, an expression ending in ';', nor a readable trace file: "+trimmed, err)
	}
	return Body{Kind: KindTrace, Trace: trace}, nil
}

// parseTriple parses "{module, function, args}" into a Triple. function
// and args may be omitted or given as the literal "nil".
func parseTriple(s string) (Triple, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	parts := strings.SplitN(inner, ",", 3)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return Triple{}, bgerr.New(bgerr.KindArgParse, "structured triple requires at least a module: "+s)
	}
	tr := Triple{Module: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		fn := strings.TrimSpace(parts[1])
		if fn != "" && fn != "nil" {
			tr.Function = fn
		}
	}
	if len(parts) > 2 {
		argStr := strings.TrimSpace(parts[2])
		if argStr != "" && argStr != "nil" {
			tr.Args = ParseArgs(argStr)
		}
	}
	if tr.Args == nil {
		tr.Args = Args{}
	}
	return tr, nil
}
