// Package probe inspects the source page without touching storage: it reports
// how many table rows the selectors match and previews the first few rows as
// they would be normalized. It can also save the fetched page so later runs
// can use it as a file source.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"countriesgdp/internal/datasource"
	"countriesgdp/internal/output"
	"countriesgdp/internal/parser/htmltable"
	"countriesgdp/internal/records"
	"countriesgdp/internal/transformer/builtin"
)

// Options control sampling.
type Options struct {
	// Sample is how many normalized rows to keep; 0 means 10.
	Sample int
	// SavePath, when set, receives the raw page bytes.
	SavePath string
}

// Result summarizes one probe.
type Result struct {
	// Source describes where the page came from.
	Source string
	// Bytes is the page size.
	Bytes int
	// Rows is the number of rows matched by the row selector.
	Rows int
	// Numeric counts matched rows whose gdp parsed as a number. Those are the
	// rows a run would try to insert, duplicates aside.
	Numeric int
	// Sample holds the first Options.Sample normalized rows.
	Sample []records.Record
}

// Probe fetches src once and evaluates sel against it.
func Probe(ctx context.Context, src datasource.Source, sel htmltable.Selectors, opt Options) (Result, error) {
	if opt.Sample <= 0 {
		opt.Sample = 10
	}
	res := Result{Source: src.Describe()}

	rc, err := src.Open(ctx)
	if err != nil {
		return res, err
	}
	page, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return res, fmt.Errorf("probe: read %s: %w", res.Source, err)
	}
	res.Bytes = len(page)

	if opt.SavePath != "" {
		if err := os.WriteFile(opt.SavePath, page, 0o644); err != nil {
			return res, fmt.Errorf("probe: save page: %w", err)
		}
	}

	rows, err := htmltable.NewSource(bytes.NewReader(page), sel)
	if err != nil {
		return res, err
	}
	res.Rows = rows.Len()

	var norm builtin.Normalize
	for {
		raw, err := rows.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		rec := norm.Apply(raw)
		if rec.GDP.Kind() == records.KindFloat {
			res.Numeric++
		}
		if len(res.Sample) < opt.Sample {
			res.Sample = append(res.Sample, rec)
		}
	}
	return res, nil
}

// Render writes the sample as a table followed by a one-line summary.
func (r Result) Render(w io.Writer) error {
	tw, err := output.New(output.FormatTable, w)
	if err != nil {
		return err
	}
	for _, rec := range r.Sample {
		if err := tw.Write(rec); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "source=%s size=%q rows=%d numeric_gdp=%d\n",
		r.Source, humanize.Bytes(uint64(r.Bytes)), r.Rows, r.Numeric)
	return err
}
