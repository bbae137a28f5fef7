// Package ddl maps the logical column kinds of internal/ddl onto SQLite
// column types.
package ddl

import (
	"strings"

	gddl "countriesgdp/internal/ddl"
)

// MapType maps a logical type string onto a SQLite column type. SQLite is
// dynamically typed; these are the canonical affinities.
//
//	integer/int/bigint -> INTEGER
//	real/float/double  -> REAL
//	everything else    -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	default:
		return "TEXT"
	}
}

// Table returns the SQLite definition of the countries_gdp layout under name.
func Table(name string) gddl.TableDef {
	return gddl.FromLogical(name, gddl.CountriesGDP, MapType)
}

// Placeholder is SQLite's positional bind marker.
func Placeholder(int) string { return "?" }
