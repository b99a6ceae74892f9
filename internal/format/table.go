package format

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/agutierrez/benchgo/internal/executor"
)

const maxCodeWidth = 62

// Table renders rows to w per spec.md §6: code (truncated to 62
// chars), concurrency, QPS, and — in comparison mode (more than one
// row) — a Rel% column normalized to the peak. Sorted descending by
// QPS.
func Table(w io.Writer, rows []executor.Row, codeByName map[string]string) {
	sorted := append([]executor.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Mean > sorted[j].Mean })

	var peak float64
	for _, r := range sorted {
		if r.Mean > peak {
			peak = r.Mean
		}
	}
	comparison := len(sorted) > 1

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if comparison {
		fmt.Fprintln(tw, "CODE\t||\tQPS\tREL%")
	} else {
		fmt.Fprintln(tw, "CODE\t||\tQPS")
	}
	for _, r := range sorted {
		code := truncate(codeByName[r.Name], maxCodeWidth)
		if comparison {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%.1f\n", code, r.Concurrency, QPS(r.Mean), RelPercent(r.Mean, peak))
		} else {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", code, r.Concurrency, QPS(r.Mean))
		}
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
