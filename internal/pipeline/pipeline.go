// Package pipeline drives one scrape run: it pulls raw rows from a RowSource,
// normalizes each into a record and passes it through an explicit, ordered
// chain of stages. Rows are processed strictly one at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"countriesgdp/internal/metrics"
	"countriesgdp/internal/records"
	"countriesgdp/internal/transformer"
	"countriesgdp/internal/transformer/builtin"
)

// RowSource yields raw rows until it returns io.EOF.
type RowSource interface {
	Next(ctx context.Context) (records.RawRow, error)
}

// Emitter receives every record that made it through all stages.
type Emitter interface {
	Write(rec records.Record) error
}

// Stats summarizes a run. After a fatal error it holds the counts gathered up
// to that point.
type Stats struct {
	Scraped  int64
	Accepted int64
	// Dropped counts drops by reason (transformer.Reason*).
	Dropped map[string]int64
}

// DroppedTotal sums Dropped.
func (s Stats) DroppedTotal() int64 {
	var n int64
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// String renders the stats as "scraped=N accepted=N dropped[reason]=N ...".
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scraped=%d accepted=%d", s.Scraped, s.Accepted)
	reasons := make([]string, 0, len(s.Dropped))
	for r := range s.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&b, " dropped[%s]=%d", r, s.Dropped[r])
	}
	return b.String()
}

// Options configure Run. The zero value is usable.
type Options struct {
	// Job labels metrics.
	Job string
	// Normalize converts raw rows; the zero value uses builtin.CleanText.
	Normalize builtin.Normalize
	// Emit, when set, receives accepted records after the last stage.
	Emit Emitter
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// dropKinds maps drop reasons to metric row kinds.
var dropKinds = map[string]string{
	transformer.ReasonNotNumeric: metrics.KindValidateDropped,
	transformer.ReasonDuplicate:  metrics.KindDuplicateDropped,
	transformer.ReasonConflict:   metrics.KindConflictDropped,
}

// Run processes rows from src until io.EOF, a fatal error, or ctx is done.
//
// A *transformer.DropError from any stage drops the row: it is logged with
// stage, key and reason, counted, and the run continues. Any other error is
// fatal; it is returned wrapped with the 1-based row number and key.
func Run(ctx context.Context, src RowSource, stages transformer.Chain, opts Options) (Stats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	stats := Stats{Dropped: map[string]int64{}}

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", row, err)
		}
		stats.Scraped++
		metrics.RecordRow(opts.Job, metrics.KindScraped, 1)

		rec := opts.Normalize.Apply(raw)
		log.DebugContext(ctx, "row normalized",
			"row", row, "key", rec.Key(), "gdp", rec.GDP.String(), "year", rec.Year.String())

		out, err := stages.Apply(ctx, rec)
		if err != nil {
			if d, ok := transformer.AsDrop(err); ok {
				stats.Dropped[d.Reason]++
				metrics.RecordRow(opts.Job, dropKinds[d.Reason], 1)
				log.WarnContext(ctx, "row dropped",
					"row", row, "stage", d.Stage, "key", d.Key, "reason", d.Reason, "detail", d.Detail)
				continue
			}
			return stats, fmt.Errorf("row %d (country_name=%q): %w", row, rec.Key(), err)
		}

		stats.Accepted++
		metrics.RecordRow(opts.Job, metrics.KindInserted, 1)
		if opts.Emit != nil {
			if err := opts.Emit.Write(out); err != nil {
				return stats, fmt.Errorf("row %d (country_name=%q): emit: %w", row, rec.Key(), err)
			}
		}
	}
}
