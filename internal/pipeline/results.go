package pipeline

import (
	"fmt"
	"io"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// PrintResult writes a human-readable summary of r.
func PrintResult(w io.Writer, r *Result) {
	run := r.Run

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Reconciliation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", run.ID)
	fmt.Fprintf(w, "Started:       %s\n", run.StartedAt.Format(time.RFC3339))
	if run.TradesFile != "" {
		fmt.Fprintf(w, "Trades file:   %s\n", run.TradesFile)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Curves")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Dates:         %d\n", run.Dates)
	fmt.Fprintf(w, "Unresolved:    %d\n", run.UnresolvedDates)

	dates := make([]civil.Date, 0, len(r.Unresolved))
	for d := range r.Unresolved {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		fmt.Fprintf(w, "  %s: %v\n", d, r.Unresolved[d])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trades")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total:         %d\n", run.Total)
	fmt.Fprintf(w, "Matching:      %d\n", run.Matching)
	fmt.Fprintf(w, "Divergent:     %d\n", run.Divergent)
	fmt.Fprintf(w, "Unresolved:    %d\n", run.Unresolved)
	fmt.Fprintf(w, "Settlement:    %d mismatched\n", run.SettlementMismatch)
}
