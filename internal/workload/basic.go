package workload

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	mrand "math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func init() {
	Register("sleep", "", sleepTask)
	Register("spin", "", spinTask)
	Register("reverse", "", reverseTask)
	Register("upper", "", upperTask)
	Register("hash", "", hashTask)
	Register("timestamp", "", timestampTask)
	Register("rand", "", randTask)
	Register("strong_rand_bytes", "", strongRandBytesTask)
}

// sleepTask simulates IO wait. "ms" (default 1) is milliseconds, unlike
// the teacher's SleepTask (which took whole seconds) — a micro-benchmark
// runner invoked thousands of times a second needs sub-second control.
func sleepTask(ctx context.Context, args codespec.Args) (any, error) {
	ms := 1
	if s, ok := args["ms"]; ok {
		ms, _ = strconv.Atoi(s)
	}
	if ms < 0 {
		ms = 0
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
	}
	return ms, nil
}

// spinTask burns CPU for a short, fixed number of iterations per call
// (adapted from the teacher's SpinTask, which burned CPU for N whole
// seconds per HTTP request — too coarse a unit for a tight runner loop).
func spinTask(ctx context.Context, args codespec.Args) (any, error) {
	iters, _ := strconv.Atoi(args["iters"])
	if iters <= 0 {
		iters = 1000
	}
	x := 0.0
	for i := 0; i < iters; i++ {
		x += float64(i) * 1.0000001
	}
	return x, nil
}

func reverseTask(_ context.Context, args codespec.Args) (any, error) {
	s := args["s"]
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r), nil
}

func upperTask(_ context.Context, args codespec.Args) (any, error) {
	return strings.ToUpper(args["s"]), nil
}

func hashTask(_ context.Context, args codespec.Args) (any, error) {
	sum := sha256.Sum256([]byte(args["s"]))
	return hex.EncodeToString(sum[:]), nil
}

func timestampTask(_ context.Context, _ codespec.Args) (any, error) {
	return time.Now().UTC().Unix(), nil
}

// randTask mirrors erlperf's built-in rand() runner: a cheap PRNG call
// used as the canonical "fast" comparison workload (spec.md §8 scenario 2).
func randTask(_ context.Context, _ codespec.Args) (any, error) {
	return mrand.Int63(), nil
}

// strongRandBytesTask mirrors erlperf's strong_rand_bytes(N): a
// comparatively expensive crypto-grade random read, used as the "slow"
// half of the scenario 2 comparison.
func strongRandBytesTask(_ context.Context, args codespec.Args) (any, error) {
	n, _ := strconv.Atoi(args["n"])
	if n <= 0 {
		n = 2
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}
