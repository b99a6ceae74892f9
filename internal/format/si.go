// Package format renders benchmark results for the non-verbose CLI
// output table (spec.md §6). Both files here are the one part of this
// module built directly on the standard library rather than a
// third-party table/formatting package: the example pack carries no
// table-rendering dependency for any repo, and spec.md explicitly
// places table formatting out of core scope (spec.md §1), so
// text/tabwriter — already idiomatic for column alignment in Go CLIs —
// is the appropriate, unexciting choice. See DESIGN.md for the full
// justification.
package format

import (
	"fmt"
	"math"
)

// siUnits are the SI-style suffixes spec.md §6 requires, base 1000.
var siUnits = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi"}

// QPS renders v using SI-style suffixes at base 1000, rounded to 3
// significant digits (spec.md §6: "QPS (scaled with SI-style suffixes
// Ki/Mi/Gi using base 1000 and rounding-to-3-significant-digits)").
func QPS(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	neg := v < 0
	if neg {
		v = -v
	}

	unit := 0
	for v >= 1000 && unit < len(siUnits)-1 {
		v /= 1000
		unit++
	}

	v = roundSignificant(v, 3)
	s := trimTrailingZeros(v)
	if neg {
		s = "-" + s
	}
	return s + siUnits[unit]
}

// roundSignificant rounds v to n significant digits.
func roundSignificant(v float64, n int) float64 {
	if v == 0 {
		return 0
	}
	magnitude := math.Ceil(math.Log10(v))
	factor := math.Pow(10, float64(n)-magnitude)
	return math.Round(v*factor) / factor
}

// trimTrailingZeros formats v with up to 3 decimal places, stripping
// insignificant trailing zeros (and a trailing dot) so "1.20" reads
// as "1.2" and "1.00" reads as "1".
func trimTrailingZeros(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

// RelPercent normalizes v against peak, as spec.md §6's Rel% column
// does in comparison mode ("normalized to the peak").
func RelPercent(v, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return v / peak * 100
}
