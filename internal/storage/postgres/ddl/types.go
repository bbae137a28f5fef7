// Package ddl maps the logical column kinds of internal/ddl onto Postgres
// column types.
package ddl

import (
	"strconv"
	"strings"

	gddl "countriesgdp/internal/ddl"
)

// MapType normalizes a logical type into a Postgres SQL type.
//
//	integer/int/bigint -> BIGINT
//	real/float/double  -> DOUBLE PRECISION (REAL is float4 in Postgres)
//	everything else    -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// Table returns the Postgres definition of the countries_gdp layout under
// name, which may be schema-qualified ("public.countries_gdp").
func Table(name string) gddl.TableDef {
	return gddl.FromLogical(name, gddl.CountriesGDP, MapType)
}

// Placeholder returns the 1-based Postgres bind marker "$i".
func Placeholder(i int) string { return "$" + strconv.Itoa(i) }
