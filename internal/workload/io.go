// IO-shaped builtins, adapted from the teacher's internal/handlers/io.go
// and internal/handlers/files.go. The teacher's handlers operated on
// files under a mounted data directory; a micro-benchmark runner must be
// self-contained and reproducible without external file state, so these
// operate on a deterministic in-memory buffer generated from a "seed"
// and "size" argument instead — the scanning/hashing/sorting algorithms
// themselves are unchanged.
package workload

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func init() {
	Register("wordcount", "", wordCountTask)
	Register("grep", "", grepTask)
	Register("hashfile", "", hashBufTask)
	Register("sortfile", "", sortBufTask)
	Register("compress", "", compressTask)
}

// genText deterministically produces sz bytes of whitespace-separated
// pseudo-words from seed, used by wordcount/grep/compress so the same
// (seed, size) always benchmarks the same input.
func genText(seed int64, sz int) []byte {
	rng := rand.New(rand.NewSource(seed))
	var buf bytes.Buffer
	buf.Grow(sz)
	for buf.Len() < sz {
		n := rng.Intn(12) + 1
		for i := 0; i < n; i++ {
			buf.WriteByte(byte('a' + rng.Intn(26)))
		}
		if rng.Intn(10) == 0 {
			buf.WriteByte('\n')
		} else {
			buf.WriteByte(' ')
		}
	}
	return buf.Bytes()[:sz]
}

func seedSizeArgs(args codespec.Args) (seed int64, size int, err error) {
	seed, _ = strconv.ParseInt(args["seed"], 10, 64)
	size, err = strconv.Atoi(args["size"])
	if err != nil || size <= 0 {
		return 0, 0, errBadArg("size", "size must be integer > 0")
	}
	return seed, size, nil
}

func wordCountTask(ctx context.Context, args codespec.Args) (any, error) {
	seed, size, err := seedSizeArgs(args)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(genText(seed, size)))
	var lines, words int64
	i := 0
	for sc.Scan() {
		if i&4095 == 0 && canceled(ctx) {
			break
		}
		i++
		lines++
		inWord := false
		for _, c := range sc.Bytes() {
			if c > ' ' {
				if !inWord {
					words++
					inWord = true
				}
			} else {
				inWord = false
			}
		}
	}
	return map[string]int64{"lines": lines, "words": words}, nil
}

func grepTask(ctx context.Context, args codespec.Args) (any, error) {
	pat := args["pattern"]
	if pat == "" {
		return nil, errBadArg("pattern", "pattern required")
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, errBadArg("pattern", "invalid regex")
	}
	seed, size, err := seedSizeArgs(args)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(genText(seed, size)))
	matches := 0
	i := 0
	for sc.Scan() {
		if i&4095 == 0 && canceled(ctx) {
			break
		}
		i++
		if re.Match(sc.Bytes()) {
			matches++
		}
	}
	return matches, nil
}

func hashBufTask(ctx context.Context, args codespec.Args) (any, error) {
	seed, size, err := seedSizeArgs(args)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(genText(seed, size))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortBufTask(ctx context.Context, args codespec.Args) (any, error) {
	seed, size, err := seedSizeArgs(args)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	n := size
	vals := make([]int, n)
	for i := range vals {
		if i&8191 == 0 && canceled(ctx) {
			break
		}
		vals[i] = rng.Int()
	}
	sort.Ints(vals)
	return len(vals), nil
}

func compressTask(ctx context.Context, args codespec.Args) (any, error) {
	seed, size, err := seedSizeArgs(args)
	if err != nil {
		return nil, err
	}
	data := genText(seed, size)
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if canceled(ctx) {
		_ = w.Close()
		return nil, fmt.Errorf("workload: canceled")
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Len(), nil
}
