package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/donaldgifford/deal-finder/internal/api/handlers"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRunResult(resp *handlers.RunResponse) error {
	return writeRunResult(os.Stdout, resp)
}

func writeRunResult(w io.Writer, resp *handlers.RunResponse) error {
	tw := newTabWriter(w)
	tw.writef("Run:\t%s\n", resp.RunID)
	tw.writef("Fetched:\t%d\n", resp.PotentialCount)
	tw.writef("Relevant:\t%d\n", resp.FilteredCount)
	if resp.MedianPrice > 0 {
		tw.writef("Median:\t%.2f\n", resp.MedianPrice)
		tw.writef("Average:\t%.2f\n", resp.AveragePrice)
	}
	for _, f := range resp.FetchFailures {
		tw.writef("Failed:\t%s (page %d): %s\n", f.Query, f.Page, truncate(f.Error, 60))
	}
	for _, warning := range resp.Warnings {
		tw.writef("Warning:\t%s\n", warning)
	}
	tw.writef("\n")

	if resp.Empty {
		tw.writef("%s\n", resp.Summary)
		return tw.finish()
	}

	tw.writef("#\tTITLE\tPRICE\tSCORE\tRELEVANCY\tPRICE SCORE\tURL\n")
	for i := range resp.Listings {
		sl := &resp.Listings[i]
		tw.writef("%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
			i+1,
			truncate(sl.Listing.Title, 40),
			priceText(&sl.Listing),
			sl.CombinedScore,
			sl.RelevancyScore,
			sl.PriceScore,
			sl.Listing.URL,
		)
	}
	return tw.finish()
}

func priceText(l *domain.Listing) string {
	if !l.HasPrice() {
		return "-"
	}
	if l.Currency == "" {
		return fmt.Sprintf("%.2f", *l.Price)
	}
	return fmt.Sprintf("%.2f %s", *l.Price, l.Currency)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
