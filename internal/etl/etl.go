// Package etl wires one scrape run together from a config.Pipeline:
// fetch the page, locate the table rows, then pull every row through
// normalize → validate → sink, optionally feeding accepted records to an
// output file.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"countriesgdp/internal/config"
	"countriesgdp/internal/datasource"
	"countriesgdp/internal/datasource/file"
	"countriesgdp/internal/datasource/httpds"
	"countriesgdp/internal/metrics"
	"countriesgdp/internal/metrics/datadog"
	"countriesgdp/internal/metrics/prompush"
	"countriesgdp/internal/output"
	"countriesgdp/internal/parser/htmltable"
	"countriesgdp/internal/pipeline"
	"countriesgdp/internal/sink"
	"countriesgdp/internal/storage"
	"countriesgdp/internal/transformer"
	"countriesgdp/internal/transformer/builtin"
)

// Step names reported through metrics.RecordStep.
const (
	StepFetch     = "fetch"
	StepParse     = "parse"
	StepOpenStore = "open_store"
	StepPipeline  = "pipeline"
)

// Result is the outcome of Run.
type Result struct {
	pipeline.Stats

	// Inserted is the number of rows the sink wrote this run.
	Inserted int64
	// TableRows is the table's row count after the run, earlier runs included.
	TableRows int64
	// Source describes where the page came from.
	Source  string
	Elapsed time.Duration
}

// newSourceFn is a test seam over NewSource.
var newSourceFn = NewSource

// NewSource builds the page source for s.
func NewSource(s config.Source) (datasource.Source, error) {
	switch strings.ToLower(s.Kind) {
	case "", "http":
		if s.URL == "" {
			return nil, errors.New("etl: source.url is required for kind=http")
		}
		var headers http.Header
		if len(s.Headers) > 0 {
			headers = make(http.Header, len(s.Headers))
			for k, v := range s.Headers {
				headers.Set(k, v)
			}
		}
		c := httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(s.TimeoutSeconds) * time.Second,
			UserAgent:          s.UserAgent,
			AllowedDomains:     s.AllowedDomains,
			InsecureSkipVerify: s.InsecureSkipVerify,
			BaseHeaders:        headers,
		})
		if err := c.Allowed(s.URL); err != nil {
			return nil, err
		}
		return httpds.NewSource(c, s.URL), nil
	case "file":
		if s.File.Path == "" {
			return nil, errors.New("etl: source.file.path is required for kind=file")
		}
		return file.NewLocal(s.File.Path), nil
	default:
		return nil, fmt.Errorf("etl: unsupported source.kind=%s", s.Kind)
	}
}

// Selectors converts the parser config into htmltable selectors. Empty
// settings fall back to htmltable.DefaultSelectors.
func Selectors(p config.Parser) htmltable.Selectors {
	sel := htmltable.DefaultSelectors()
	if p.Row != "" {
		sel.Row = p.Row
	}
	if len(p.Fields) > 0 {
		sel.Fields = make([]htmltable.Field, len(p.Fields))
		for i, f := range p.Fields {
			sel.Fields[i] = htmltable.Field{Name: f.Name, Selector: f.Selector}
		}
	}
	return sel
}

// NewSink builds an unopened sink for s.
func NewSink(s config.Storage) (*sink.Sink, error) {
	policy, err := sink.ParsePolicy(s.DB.OnConflict)
	if err != nil {
		return nil, err
	}
	return sink.New(sink.Options{
		Store: storage.Config{
			Kind:  s.Kind,
			DSN:   s.DB.DSN,
			Table: s.DB.Table,
		},
		OnConflict: policy,
		SkipCreate: !s.DB.AutoCreateTable,
	}), nil
}

// Schema returns the CREATE TABLE statement Run would execute for s.
func Schema(s config.Storage) (string, error) {
	return storage.CreateTableSQL(s.Kind, storage.Config{Table: s.DB.Table}.TableName())
}

// step runs fn and records its duration and outcome.
func step(ctx context.Context, job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(job, name, err, d)
	slog.DebugContext(ctx, "step done", "step", name, "elapsed", d.Truncate(time.Millisecond), "err", err)
	return err
}

// Run executes one scrape run. The sink is always closed before Run
// returns. On a fatal row error the returned Result still holds the counts
// gathered so far.
func Run(ctx context.Context, p config.Pipeline) (res Result, err error) {
	start := time.Now()
	job := p.Job

	src, err := newSourceFn(p.Source)
	if err != nil {
		return res, err
	}
	res.Source = src.Describe()
	slog.InfoContext(ctx, "run starting",
		"source", res.Source, "storage", p.Storage.Kind, "table", p.Storage.DB.Table,
		"on_conflict", p.Storage.DB.OnConflict)

	// The store is opened first so an unreachable database fails the run
	// before any network traffic.
	sk, err := NewSink(p.Storage)
	if err != nil {
		return res, err
	}
	if err := step(ctx, job, StepOpenStore, func() error { return sk.Open(ctx) }); err != nil {
		return res, err
	}
	defer sk.Close()

	var rows *htmltable.Source
	err = step(ctx, job, StepFetch, func() error {
		rc, err := src.Open(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()
		// The parse consumes the body, so it runs inside the fetch step's
		// lifetime but is timed on its own.
		return step(ctx, job, StepParse, func() error {
			rows, err = htmltable.NewSource(rc, Selectors(p.Parser))
			return err
		})
	})
	if err != nil {
		return res, fmt.Errorf("etl: load %s: %w", res.Source, err)
	}
	slog.InfoContext(ctx, "table located", "rows", rows.Len())

	opts := pipeline.Options{Job: job}
	if p.Output.Path != "" {
		w, werr := output.Create(p.Output.Path, p.Output.Format)
		if werr != nil {
			return res, werr
		}
		defer func() {
			if cerr := w.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}()
		opts.Emit = w
	}

	stages := transformer.Chain{builtin.RequireNumeric{}, sk}
	err = step(ctx, job, StepPipeline, func() error {
		var runErr error
		res.Stats, runErr = pipeline.Run(ctx, rows, stages, opts)
		return runErr
	})
	res.Inserted = sk.Inserted()
	if n, cerr := sk.Count(ctx); cerr == nil {
		res.TableRows = n
	}
	res.Elapsed = time.Since(start)
	logSummary(ctx, res, err)
	return res, err
}

// logSummary prints one line with the run totals.
func logSummary(ctx context.Context, res Result, err error) {
	attrs := []any{
		"scraped", res.Scraped,
		"inserted", res.Inserted,
		"dropped_validate", res.Dropped[transformer.ReasonNotNumeric],
		"dropped_duplicate", res.Dropped[transformer.ReasonDuplicate],
		"dropped_conflict", res.Dropped[transformer.ReasonConflict],
		"dropped_total", res.DroppedTotal(),
		"table_rows", res.TableRows,
		"elapsed", res.Elapsed.Truncate(time.Millisecond),
	}
	if err != nil {
		slog.ErrorContext(ctx, "summary", append(attrs, "err", err)...)
		return
	}
	slog.InfoContext(ctx, "summary", attrs...)
}

// SetupMetrics installs the backend selected by m. The returned function
// flushes it; call it once the run is over. With backend "none" (or empty)
// the no-op backend stays in place.
func SetupMetrics(m config.Metrics, job string) (flush func() error, err error) {
	var b metrics.Backend
	switch strings.ToLower(m.Backend) {
	case "", "none":
		return metrics.Flush, nil
	case "prompush":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: []string{"job:" + job},
		})
	default:
		return nil, fmt.Errorf("etl: unknown metrics backend %q", m.Backend)
	}
	if err != nil {
		return nil, err
	}
	metrics.SetBackend(b)
	slog.Debug("metrics enabled", "backend", m.Backend)
	return metrics.Flush, nil
}
