package codespec

import "strings"

// ParseArgs turns "a=1&b=2" into a flat string map, without percent
// decoding — adapted directly from the teacher's
// internal/http10.ParseQuery, which solves the identical flat
// string-to-string-map parsing problem for HTTP query strings.
func ParseArgs(q string) Args {
	if q == "" {
		return Args{}
	}
	m := make(Args)
	for _, kv := range strings.Split(q, "&") {
		if kv == "" {
			continue
		}
		p := strings.SplitN(kv, "=", 2)
		k, v := p[0], ""
		if len(p) == 2 {
			v = p[1]
		}
		m[k] = v
	}
	return m
}

// Encode is the inverse of ParseArgs, used by trace serialization and
// tests. Key order is not stable across calls.
func (a Args) Encode() string {
	if len(a) == 0 {
		return ""
	}
	var b strings.Builder
	first := true
	for k, v := range a {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
