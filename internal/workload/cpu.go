// CPU-bound builtins, adapted from the teacher's internal/handlers/cpu.go.
// The HTTP/JSON response envelope and query validation is stripped; each
// handler becomes a plain (any, error) workload.Func. The algorithms
// themselves (Miller-Rabin, Chudnovsky, the Rabinowitz-Wagon spigot,
// escape-time Mandelbrot, cache-friendly matrix multiply) are carried
// over close to verbatim.
package workload

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/big"
	"math/cmplx"
	"math/rand"
	"strconv"
	"strings"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func init() {
	Register("isprime", "", isPrimeTask)
	Register("factor", "", factorTask)
	Register("pi", "", piTask)
	Register("mandelbrot", "", mandelbrotTask)
	Register("matrixmul", "", matrixMulTask)
}

func isPrimeTask(ctx context.Context, args codespec.Args) (any, error) {
	n64, err := strconv.ParseInt(args["n"], 10, 64)
	if err != nil || n64 < 0 {
		return nil, errBadArg("n", "n must be integer >= 0")
	}
	method := args["method"]
	if method == "" {
		method = "division"
	}

	switch method {
	case "division":
		return isPrimeDivision(ctx, n64), nil
	case "miller-rabin":
		return mrIsPrime64(ctx, uint64(n64)), nil
	default:
		return nil, errBadArg("method", "use method=division|miller-rabin")
	}
}

func isPrimeDivision(ctx context.Context, n int64) bool {
	switch {
	case n < 2:
		return false
	case n == 2 || n == 3:
		return true
	case n%2 == 0:
		return false
	}
	limit := int64(math.Sqrt(float64(n)))
	for d := int64(3); d <= limit; d += 2 {
		if d&1023 == 0 && canceled(ctx) {
			return false
		}
		if n%d == 0 {
			return false
		}
	}
	return true
}

func mrIsPrime64(ctx context.Context, n uint64) bool {
	if n < 2 {
		return false
	}
	small := [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}
	for _, p := range small {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
	}

	r := 0
	d := n - 1
	for d&1 == 0 {
		d >>= 1
		r++
	}

	bases := [...]uint64{2, 3, 5, 7, 11, 13, 17}
	nBI := new(big.Int).SetUint64(n)
	dBI := new(big.Int).SetUint64(d)

	for i, a := range bases {
		if i&1 == 0 && canceled(ctx) {
			return false
		}
		if a%n == 0 {
			continue
		}
		x := new(big.Int).Exp(new(big.Int).SetUint64(a), dBI, nBI)
		if x.Sign() == 0 || x.Cmp(big.NewInt(1)) == 0 || x.Cmp(new(big.Int).Sub(nBI, big.NewInt(1))) == 0 {
			continue
		}
		composite := true
		for j := 1; j < r; j++ {
			if canceled(ctx) {
				return false
			}
			x.Mul(x, x)
			x.Mod(x, nBI)
			if x.Cmp(new(big.Int).Sub(nBI, big.NewInt(1))) == 0 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

func factorTask(ctx context.Context, args codespec.Args) (any, error) {
	n64, err := strconv.ParseInt(args["n"], 10, 64)
	if err != nil || n64 < 2 {
		return nil, errBadArg("n", "n must be integer >= 2")
	}
	n := n64
	var facts [][2]int64

	if n%2 == 0 {
		c := int64(0)
		for n%2 == 0 {
			n /= 2
			c++
		}
		facts = append(facts, [2]int64{2, c})
	}
	for d := int64(3); d <= n/d; d += 2 {
		if d&1023 == 0 && canceled(ctx) {
			break
		}
		if n%d == 0 {
			c := int64(0)
			for n%d == 0 {
				n /= d
				c++
			}
			facts = append(facts, [2]int64{d, c})
		}
	}
	if n > 1 {
		facts = append(facts, [2]int64{n, 1})
	}
	return facts, nil
}

const maxPiDigits = 10000

func piTask(ctx context.Context, args codespec.Args) (any, error) {
	d, err := strconv.Atoi(args["digits"])
	if err != nil || d < 1 {
		return nil, errBadArg("digits", "digits must be integer >= 1")
	}
	if d > maxPiDigits {
		d = maxPiDigits
	}
	method := args["method"]
	if method == "" {
		method = "chudnovsky"
	}
	switch method {
	case "spigot":
		s, _, _ := piSpigot(ctx, d)
		return s, nil
	case "chudnovsky":
		return piChudnovsky(ctx, d), nil
	default:
		return nil, errBadArg("method", "use method=spigot|chudnovsky")
	}
}

// piSpigot implements the Rabinowitz-Wagon spigot algorithm in base 10.
func piSpigot(ctx context.Context, n int) (string, int, bool) {
	if n <= 0 {
		return "3", 0, false
	}
	size := (10*(n+2))/3 + 1
	a := make([]int, size)
	for i := range a {
		a[i] = 2
	}

	const (
		stateDropInt = iota
		stateFirstPred
		stateNormal
	)
	state := stateDropInt
	nines := 0
	predigit := 0
	iters := 0

	out := make([]byte, 0, n+2)
	out = append(out, '3', '.')

	for digits := 0; digits < n; {
		if (digits&63) == 0 && canceled(ctx) {
			if state == stateNormal {
				out = append(out, byte(predigit)+'0')
				for ; nines > 0 && len(out) < 2+n; nines-- {
					out = append(out, '9')
				}
			}
			if len(out) > 2+n {
				out = out[:2+n]
			}
			return string(out), iters, true
		}

		carry := 0
		for i := size - 1; i > 0; i-- {
			x := a[i]*10 + carry*(i+1)
			den := 2*i + 1
			a[i] = x % den
			carry = x / den
			iters++
		}
		x0 := a[0]*10 + carry
		a[0] = x0 % 10
		q := x0 / 10

		switch state {
		case stateDropInt:
			state = stateFirstPred
		case stateFirstPred:
			predigit = q
			state = stateNormal
		case stateNormal:
			switch {
			case q == 9:
				nines++
			case q == 10:
				out = append(out, byte(predigit+1)+'0')
				for ; nines > 0; nines-- {
					out = append(out, '0')
				}
				predigit = 0
				digits++
			default:
				out = append(out, byte(predigit)+'0')
				for ; nines > 0; nines-- {
					out = append(out, '9')
				}
				predigit = q
				digits++
			}
		}
	}

	if len(out) < 2+n {
		out = append(out, byte(predigit)+'0')
	}
	if len(out) > 2+n {
		out = out[:2+n]
	}
	return string(out), iters, false
}

// piChudnovsky computes pi via the Chudnovsky series using big.Float,
// far faster per digit than the spigot method for large digit counts.
func piChudnovsky(ctx context.Context, d int) string {
	bits := uint(float64(d+5) * 3.32193)
	one := new(big.Float).SetPrec(bits).SetInt64(1)

	A := big.NewFloat(13591409).SetPrec(bits)
	B := big.NewFloat(545140134).SetPrec(bits)

	c3int := new(big.Int).Exp(big.NewInt(640320), big.NewInt(3), nil)
	c3 := new(big.Float).SetPrec(bits).SetInt(c3int)

	sum := new(big.Float).SetPrec(bits).SetFloat64(0.0)
	t := new(big.Float).SetPrec(bits).SetFloat64(1.0)
	k := 0
	sign := 1.0

	pow10 := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
	tenPow := new(big.Float).SetPrec(bits).SetInt(pow10)
	threshold := new(big.Float).SetPrec(bits).Quo(one, tenPow)

	for {
		if (k&1023) == 0 && canceled(ctx) {
			break
		}
		ak := new(big.Float).SetPrec(bits).Mul(B, new(big.Float).SetPrec(bits).SetFloat64(float64(k)))
		ak.Add(ak, A)
		term := new(big.Float).SetPrec(bits).Mul(t, ak)
		if sign < 0 {
			term.Neg(term)
		}
		sum.Add(sum, term)

		if new(big.Float).Abs(term).Cmp(threshold) < 0 {
			break
		}

		k++
		sign *= -1

		num := new(big.Float).SetPrec(bits).SetFloat64(float64(24 * (6*k - 5)))
		num.Mul(num, new(big.Float).SetPrec(bits).SetFloat64(float64(2*k-1)))
		num.Mul(num, new(big.Float).SetPrec(bits).SetFloat64(float64(6*k-1)))

		den := new(big.Float).SetPrec(bits).SetFloat64(float64(k * k * k))
		den.Mul(den, c3)

		t.Mul(t, num)
		t.Quo(t, den)
	}

	c3Sqrt := new(big.Float).SetPrec(bits).Sqrt(c3)
	den := new(big.Float).SetPrec(bits).Mul(new(big.Float).SetPrec(bits).SetFloat64(12.0), sum)
	pi := new(big.Float).SetPrec(bits).Quo(c3Sqrt, den)

	txt := pi.Text('f', d)
	if idx := strings.IndexByte(txt, '.'); idx >= 0 {
		want := idx + 1 + d
		if want < len(txt) {
			txt = txt[:want]
		}
	}
	return txt
}

const (
	maxMandelSide = 512
	maxMandelIter = 2000
)

func mandelbrotTask(ctx context.Context, args codespec.Args) (any, error) {
	w, errW := strconv.Atoi(args["width"])
	h, errH := strconv.Atoi(args["height"])
	it, errI := strconv.Atoi(args["max_iter"])
	if errW != nil || errH != nil || errI != nil || w <= 0 || h <= 0 || it <= 0 {
		return nil, errBadArg("params", "width,height,max_iter must be integers > 0")
	}
	if w > maxMandelSide {
		w = maxMandelSide
	}
	if h > maxMandelSide {
		h = maxMandelSide
	}
	if it > maxMandelIter {
		it = maxMandelIter
	}

	minRe, maxRe := -2.5, 1.0
	minIm, maxIm := -1.0, 1.0

	img := make([][]int, h)
	for y := 0; y < h; y++ {
		if y&63 == 0 && canceled(ctx) {
			return img, nil
		}
		row := make([]int, w)
		ci := minIm + (maxIm-minIm)*float64(y)/float64(h-1)
		for x := 0; x < w; x++ {
			cr := minRe + (maxRe-minRe)*float64(x)/float64(w-1)
			c := complex(cr, ci)
			z := complex(0, 0)
			iter := 0
			for iter = 0; iter < it; iter++ {
				if iter&255 == 0 && canceled(ctx) {
					break
				}
				z = z*z + c
				if cmplx.Abs(z) > 2.0 {
					break
				}
			}
			row[x] = iter
		}
		img[y] = row
	}
	return img, nil
}

func matrixMulTask(ctx context.Context, args codespec.Args) (any, error) {
	n, err1 := strconv.Atoi(args["size"])
	seed, err2 := strconv.ParseInt(args["seed"], 10, 64)
	if err1 != nil || n <= 0 || err2 != nil {
		return nil, errBadArg("params", "size>0 and valid seed required")
	}

	rng := rand.New(rand.NewSource(seed))
	a := make([]int64, n*n)
	b := make([]int64, n*n)
	for i := 0; i < n*n; i++ {
		a[i] = int64(rng.Intn(7) - 3)
		b[i] = int64(rng.Intn(7) - 3)
	}

	c := make([]int64, n*n)
	for i := 0; i < n; i++ {
		if i&7 == 0 && canceled(ctx) {
			break
		}
		ik := i * n
		for k := 0; k < n; k++ {
			aik := a[ik+k]
			if aik == 0 {
				continue
			}
			kj := k * n
			for j := 0; j < n; j++ {
				c[ik+j] += aik * b[kj+j]
			}
		}
	}

	h := sha256.New()
	for _, v := range c {
		_ = binary.Write(h, binary.LittleEndian, v)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
