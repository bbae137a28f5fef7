// Package builtin contains the record stages used by the GDP scrape: field
// normalization, the numeric-GDP requirement and run-scoped de-duplication.
package builtin

import (
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"countriesgdp/internal/parser/markup"
	"countriesgdp/internal/records"
)

// Processor converts one text fragment.
type Processor func(string) string

// Compose returns a Processor applying ps left to right.
func Compose(ps ...Processor) Processor {
	return func(s string) string {
		for _, p := range ps {
			s = p(s)
		}
		return s
	}
}

// UnescapeEntities decodes HTML character references ("&amp;", "&nbsp;").
// It runs after tag stripping so decoded '<' cannot be mistaken for markup.
func UnescapeEntities(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return html.UnescapeString(s)
}

// FoldUnicode composes s to NFC, turns every Unicode space (NBSP, thin
// space, ...) into an ASCII space and removes format characters such as
// zero-width spaces and soft hyphens.
func FoldUnicode(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(
		norm.NFC,
		runes.Remove(runes.In(unicode.Cf)),
		runes.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			return r
		}),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// CleanText is the input processor applied to every fragment of every field:
// strip tags, decode entities, fold Unicode spacing, trim.
var CleanText = Compose(markup.StripTags, UnescapeEntities, FoldUnicode, strings.TrimSpace)

// TakeFirst returns the first element of vs, or "" when vs is empty.
func TakeFirst(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// ParseGDP removes every thousands separator (',') from s and parses the rest
// as a float. When that fails, or the result is NaN or infinite, the
// comma-free string is returned as Raw.
func ParseGDP(s string) records.Value {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return records.Raw(s)
	}
	return records.Float(f)
}

// ParseYear returns the first maximal run of exactly four ASCII digits in s as
// an Int. Longer or shorter digit runs are skipped ("12345" has no year).
// When no such run exists s is returned unchanged as Raw.
func ParseYear(s string) records.Value {
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j-i == 4 {
			n, err := strconv.ParseInt(s[i:j], 10, 64)
			if err == nil {
				return records.Int(n)
			}
		}
		i = j
	}
	return records.Raw(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Normalize converts a RawRow into a Record. It is a pure function of the
// row; it never fails.
type Normalize struct {
	// Text overrides the per-fragment input processor; nil means CleanText.
	Text Processor
}

func (n Normalize) text() Processor {
	if n.Text != nil {
		return n.Text
	}
	return CleanText
}

// Field normalizes the fragments of one field: every fragment goes through
// the input processor, the first result is kept, and gdp/year get their
// typed parse. country_name and region come back as Raw text.
func (n Normalize) Field(name string, fragments []string) records.Value {
	proc := n.text()
	cleaned := make([]string, len(fragments))
	for i, f := range fragments {
		cleaned[i] = proc(f)
	}
	v := TakeFirst(cleaned)

	switch name {
	case records.FieldGDP:
		return ParseGDP(v)
	case records.FieldYear:
		return ParseYear(v)
	default:
		return records.Raw(v)
	}
}

// Apply normalizes all four fields of raw.
func (n Normalize) Apply(raw records.RawRow) records.Record {
	return records.Record{
		CountryName: n.Field(records.FieldCountryName, raw[records.FieldCountryName]).Raw(),
		Region:      n.Field(records.FieldRegion, raw[records.FieldRegion]).Raw(),
		GDP:         n.Field(records.FieldGDP, raw[records.FieldGDP]),
		Year:        n.Field(records.FieldYear, raw[records.FieldYear]),
	}
}
