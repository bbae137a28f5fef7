// Package htmltable turns the rows of an HTML table into records.RawRow values
// through CSS selectors. It is a pull iterator: rows are extracted one at a
// time as Next is called.
package htmltable

import (
	"context"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"countriesgdp/internal/records"
)

// Field binds a record field to a selector evaluated relative to a row.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Selector string `json:"selector" yaml:"selector"`
}

// Selectors locate the rows of the table and the fields inside each row.
type Selectors struct {
	Row    string  `json:"row" yaml:"row"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// DefaultSelectors match the nominal GDP table on Wikipedia: body rows
// without a class attribute; country and region links; gdp and year cells.
func DefaultSelectors() Selectors {
	return Selectors{
		Row: "table.wikitable.sortable tbody tr:not([class])",
		Fields: []Field{
			{Name: records.FieldCountryName, Selector: "td:nth-child(1) a"},
			{Name: records.FieldRegion, Selector: "td:nth-child(2) a"},
			{Name: records.FieldGDP, Selector: "td:nth-child(3)"},
			{Name: records.FieldYear, Selector: "td:nth-child(4)"},
		},
	}
}

// Validate compiles every selector and reports the first one that does not
// parse. goquery silently matches nothing on a bad selector, so this is the
// only place such typos surface.
func (s Selectors) Validate() error {
	if _, err := cascadia.Compile(s.Row); err != nil {
		return fmt.Errorf("htmltable: row selector %q: %w", s.Row, err)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("htmltable: no field selectors")
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("htmltable: field with empty name (selector %q)", f.Selector)
		}
		if _, err := cascadia.Compile(f.Selector); err != nil {
			return fmt.Errorf("htmltable: field %s selector %q: %w", f.Name, f.Selector, err)
		}
	}
	return nil
}

// Source yields one RawRow per matched table row. Each field holds the outer
// HTML of every element its selector matched, in document order.
type Source struct {
	sel  Selectors
	rows *goquery.Selection
	next int
}

// NewSource parses the document in r and locates the rows. It returns an
// error only for unreadable input or invalid selectors; a page without a
// matching table yields a Source with zero rows.
func NewSource(r io.Reader, sel Selectors) (*Source, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmltable: parse document: %w", err)
	}
	return &Source{sel: sel, rows: doc.Find(sel.Row)}, nil
}

// Len returns the total number of matched rows.
func (s *Source) Len() int { return s.rows.Length() }

// Next returns the next row, or io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (records.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= s.rows.Length() {
		return nil, io.EOF
	}
	row := s.rows.Eq(s.next)
	s.next++

	raw := make(records.RawRow, len(s.sel.Fields))
	for _, f := range s.sel.Fields {
		var frags []string
		var ferr error
		row.Find(f.Selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			h, err := goquery.OuterHtml(el)
			if err != nil {
				ferr = err
				return false
			}
			frags = append(frags, h)
			return true
		})
		if ferr != nil {
			return nil, fmt.Errorf("htmltable: row %d field %s: %w", s.next, f.Name, ferr)
		}
		raw[f.Name] = frags
	}
	return raw, nil
}
