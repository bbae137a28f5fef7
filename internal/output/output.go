// Package output writes accepted records to a feed (JSON, JSON lines, CSV or
// a terminal table) independently of the store.
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"countriesgdp/internal/records"
)

// Formats accepted by New.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// Writer receives accepted records. Close flushes buffered output; it must
// be called on every exit path so records accepted before a fatal error are
// not lost.
type Writer interface {
	Write(rec records.Record) error
	Close() error
}

// FormatFromPath infers a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".jsonl"), strings.HasSuffix(path, ".ndjson"):
		return FormatJSONL
	case strings.HasSuffix(path, ".csv"):
		return FormatCSV
	case strings.HasSuffix(path, ".txt"):
		return FormatTable
	default:
		return FormatJSON
	}
}

// New returns a Writer for format over w. Closing the Writer does not close w.
func New(format string, w io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return &jsonWriter{bw: bufio.NewWriter(w)}, nil
	case FormatJSONL:
		return &jsonWriter{bw: bufio.NewWriter(w), lines: true}, nil
	case FormatCSV:
		return &csvWriter{cw: csv.NewWriter(w)}, nil
	case FormatTable:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.Style().Format.Header = text.FormatDefault
		t.AppendHeader(table.Row{records.FieldCountryName, records.FieldRegion, records.FieldGDP, records.FieldYear})
		return &tableWriter{t: t}, nil
	default:
		return nil, fmt.Errorf("output: unknown format %q (want json|jsonl|csv|table)", format)
	}
}

// Create opens path ("-" is stdout) and returns a Writer that also closes
// the file. An empty format is inferred from the extension.
func Create(path, format string) (Writer, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	if path == "-" {
		return New(format, os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("output: create %s: %w", path, err)
	}
	w, err := New(format, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileWriter{Writer: w, f: f}, nil
}

type fileWriter struct {
	Writer
	f *os.File
}

func (w *fileWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// jsonWriter emits a JSON array (or one object per line) of records.
type jsonWriter struct {
	bw     *bufio.Writer
	lines  bool
	n      int
	closed bool
}

func (w *jsonWriter) Write(rec records.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("output: marshal %q: %w", rec.Key(), err)
	}
	switch {
	case w.lines:
	case w.n == 0:
		w.bw.WriteString("[\n")
	default:
		w.bw.WriteString(",\n")
	}
	w.bw.Write(b)
	if w.lines {
		w.bw.WriteByte('\n')
	}
	w.n++
	return nil
}

func (w *jsonWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.lines {
		if w.n == 0 {
			w.bw.WriteString("[")
		}
		w.bw.WriteString("\n]\n")
	}
	return w.bw.Flush()
}

// csvWriter writes a header row before the first record.
type csvWriter struct {
	cw     *csv.Writer
	header bool
	closed bool
}

func (w *csvWriter) Write(rec records.Record) error {
	if !w.header {
		if err := w.cw.Write(records.Fields); err != nil {
			return err
		}
		w.header = true
	}
	return w.cw.Write(rec.Strings())
}

func (w *csvWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.header {
		if err := w.cw.Write(records.Fields); err != nil {
			return err
		}
	}
	w.cw.Flush()
	return w.cw.Error()
}

// tableWriter buffers rows and renders them on Close.
type tableWriter struct {
	t      table.Writer
	closed bool
}

func (w *tableWriter) Write(rec records.Record) error {
	w.t.AppendRow(table.Row{rec.CountryName, rec.Region, rec.GDP.String(), rec.Year.String()})
	return nil
}

func (w *tableWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.t.Render()
	return nil
}
