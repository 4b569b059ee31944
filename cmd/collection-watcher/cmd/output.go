package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/collection-watcher/internal/watcher"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
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

func printPollResult(w io.Writer, res *watcher.Result) error {
	tw := newTabWriter(w)
	tw.writef("Cycle:\t%s\n", res.CycleID)
	tw.writef("Outcome:\t%s\n", res.Outcome)
	if res.Latest != nil {
		tw.writef("Latest:\t%d %s (%s)\n", res.Latest.ID, res.Latest.Name, res.Latest.Slug)
	}
	tw.writef("Previous ID:\t%d\n", res.Previous.LastSeenID())
	tw.writef("Notified:\t%v\n", res.Notified)
	if res.NotifyErr != nil {
		tw.writef("Notify error:\t%s\n", res.NotifyErr)
	}
	tw.writef("Persisted:\t%v\n", res.Persisted)
	tw.writef("Duration:\t%s\n", res.Duration.Round(time.Millisecond))
	return tw.finish()
}

func printState(w io.Writer, id int64, slug, name string, detectedAt time.Time) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%d\n", id)
	tw.writef("Slug:\t%s\n", slug)
	tw.writef("Name:\t%s\n", name)
	tw.writef("Detected:\t%s\n", detectedAt.Format(time.RFC3339))
	return tw.finish()
}

func printPayload(w io.Writer, p *domain.AggregatePayload, payloadPath, curlPath string) error {
	tw := newTabWriter(w)
	tw.writef("NFT\tPRICE\n")
	for _, id := range p.NFTs {
		tw.writef("%d\t%s\n", id, p.NFTsPrices[id].String())
	}
	tw.writef("TOTAL\t%s\n", p.Total.String())
	if payloadPath != "" {
		tw.writef("\nPayload:\t%s\n", payloadPath)
		tw.writef("Curl:\t%s\n", curlPath)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
