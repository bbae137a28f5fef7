package builtin

import (
	"testing"

	"countriesgdp/internal/records"
)

const nbspace = "\u00a0"

func TestParseGDP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want records.Value
	}{
		{name: "thousands separators", in: "1,234.5", want: records.Float(1234.5)},
		{name: "large integer", in: "4,231,141", want: records.Float(4231141)},
		{name: "plain", in: "500", want: records.Float(500)},
		{name: "em dash", in: "—", want: records.Raw("—")},
		{name: "not available", in: "N/A", want: records.Raw("N/A")},
		{name: "empty", in: "", want: records.Raw("")},
		{name: "fallback keeps comma-free text", in: "1,2x", want: records.Raw("12x")},
		{name: "NaN", in: "NaN", want: records.Raw("NaN")},
		{name: "infinity", in: "Inf", want: records.Raw("Inf")},
		{name: "negative infinity", in: "-infinity", want: records.Raw("-infinity")},
		{name: "overflow", in: "1e400", want: records.Raw("1e400")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseGDP(tt.in); got != tt.want {
				t.Fatalf("ParseGDP(%q) = %v (%v), want %v (%v)", tt.in, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want records.Value
	}{
		{name: "bare year", in: "2023", want: records.Int(2023)},
		{name: "estimate suffix", in: "2023 est.", want: records.Int(2023)},
		{name: "embedded", in: "Est. 2019 (IMF)", want: records.Int(2019)},
		{name: "first of two", in: "2019–2021", want: records.Int(2019)},
		{name: "dash", in: "-", want: records.Raw("-")},
		{name: "empty", in: "", want: records.Raw("")},
		{name: "too short", in: "FY 23", want: records.Raw("FY 23")},
		{name: "five digits skipped", in: "12345", want: records.Raw("12345")},
		{name: "five digits then year", in: "12345 or 2020", want: records.Int(2020)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseYear(tt.in); got != tt.want {
				t.Fatalf("ParseYear(%q) = %v (%v), want %v (%v)", tt.in, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "anchor", in: `<a href="/wiki/Japan" title="Japan">Japan</a>`, want: "Japan"},
		{name: "whitespace", in: "  <td>\n2023\n</td> ", want: "2023"},
		{name: "entity nbsp", in: "<td>&nbsp;1,234&nbsp;</td>", want: "1,234"},
		{name: "raw nbsp", in: nbspace + "Asia" + nbspace, want: "Asia"},
		{name: "amp entity", in: "<a>Trinidad &amp; Tobago</a>", want: "Trinidad & Tobago"},
		{name: "escaped markup stays text", in: "&lt;b&gt;", want: "<b>"},
		{name: "zero width space removed", in: "Ja\u200bpan", want: "Japan"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeApply(t *testing.T) {
	t.Parallel()

	raw := records.RawRow{
		records.FieldCountryName: {"<a>Japan</a>", "<a>ignored</a>"},
		records.FieldRegion:      {"<a>Asia</a>"},
		records.FieldGDP:         {`<td style="text-align:right">4,231,141</td>`},
		records.FieldYear:        {"<td>2023 est.</td>"},
	}
	got := Normalize{}.Apply(raw)
	want := records.Record{
		CountryName: "Japan",
		Region:      "Asia",
		GDP:         records.Float(4231141),
		Year:        records.Int(2023),
	}
	if got != want {
		t.Fatalf("Apply = %+v\nwant    %+v", got, want)
	}
}

// Missing fields normalize to "present but empty" values, not errors.
func TestNormalizeApplyMissingFields(t *testing.T) {
	t.Parallel()

	got := Normalize{}.Apply(records.RawRow{
		records.FieldCountryName: {"<a>Tuvalu</a>"},
		records.FieldRegion:      {},
	})
	if got.CountryName != "Tuvalu" || got.Region != "" {
		t.Fatalf("text fields = %q/%q", got.CountryName, got.Region)
	}
	if got.GDP != records.Raw("") || got.Year != records.Raw("") {
		t.Fatalf("gdp/year = %v (%v) / %v (%v)", got.GDP, got.GDP.Kind(), got.Year, got.Year.Kind())
	}
}

func TestNormalizeCustomProcessor(t *testing.T) {
	t.Parallel()

	n := Normalize{Text: Compose(CleanText, func(s string) string { return s + "!" })}
	if got := n.Field(records.FieldRegion, []string{"<a>Asia</a>"}); got.Raw() != "Asia!" {
		t.Fatalf("Field = %q", got.Raw())
	}
}

func TestTakeFirst(t *testing.T) {
	t.Parallel()

	if got := TakeFirst(nil); got != "" {
		t.Fatalf("TakeFirst(nil) = %q", got)
	}
	if got := TakeFirst([]string{"a", "b"}); got != "a" {
		t.Fatalf("TakeFirst = %q", got)
	}
}

func BenchmarkNormalizeApply(b *testing.B) {
	raw := records.RawRow{
		records.FieldCountryName: {`<a href="/wiki/Japan" title="Japan">Japan</a>`},
		records.FieldRegion:      {`<a href="/wiki/Asia" title="Asia">Asia</a>`},
		records.FieldGDP:         {`<td style="text-align:right">4,231,141</td>`},
		records.FieldYear:        {`<td>2023</td>`},
	}
	n := Normalize{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = n.Apply(raw)
	}
}
