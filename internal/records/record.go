package records

// Field names shared by the selector config, the normalizer and the store.
const (
	FieldCountryName = "country_name"
	FieldRegion      = "region"
	FieldGDP         = "gdp"
	FieldYear        = "year"
)

// Fields lists the record fields in column order.
var Fields = []string{FieldCountryName, FieldRegion, FieldGDP, FieldYear}

// RawRow maps a field name to the raw markup fragments matched for it under
// one table row. A field with no matches may be absent or map to an empty
// slice; both mean "present but empty" downstream.
type RawRow map[string][]string

// Record is a normalized table row.
type Record struct {
	CountryName string `json:"country_name"`
	Region      string `json:"region"`
	GDP         Value  `json:"gdp"`
	Year        Value  `json:"year"`
}

// Key returns the de-duplication and primary key of r.
func (r Record) Key() string { return r.CountryName }

// Row returns r's values in Fields order, ready for a parameterized INSERT.
func (r Record) Row() []any {
	return []any{r.CountryName, r.Region, r.GDP.SQL(), r.Year.SQL()}
}

// Strings returns r's values in Fields order as text.
func (r Record) Strings() []string {
	return []string{r.CountryName, r.Region, r.GDP.String(), r.Year.String()}
}
