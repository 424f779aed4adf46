// Package console prints one human readable line per outcome.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/screwyprof/eligibility/eligibility"
)

// Reporter implements eligibility.Sink for a terminal
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Started prints the start banner
func (r *Reporter) Started(total int) {
	_ = r.printf("🚀 Checking eligibility for %d addresses\n\n", total)
}

// Append prints the outcome
func (r *Reporter) Append(_ context.Context, outcome eligibility.Outcome) error {
	if outcome.Record.Eligible {
		return r.printf("🟢 %s → Eligible ✔\n", outcome.Address)
	}
	return r.printf("🔴 %s → Not Eligible (%s)\n", outcome.Address, outcome.Record.Status)
}

// Finished prints the closing banner with the result file location
func (r *Reporter) Finished(summary eligibility.Summary, resultFile string) {
	_ = r.printf("\n🎉 Done: %d checked, %d eligible, %d failed. Results saved to %s\n\n",
		summary.Total,
		summary.Eligible,
		summary.ByStatus[eligibility.StatusNetworkFailed],
		resultFile,
	)
}

func (r *Reporter) printf(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintf(r.out, format, args...)
	return err
}
