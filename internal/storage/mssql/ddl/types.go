// Package ddl renders SQL Server DDL and DML for the countries_gdp layout.
//
// SQL Server differs from the other backends in three ways that matter here:
// identifiers are bracket-quoted, CREATE TABLE has no IF NOT EXISTS, and an
// NVARCHAR(MAX) column cannot be part of a primary key.
package ddl

import (
	"strconv"
	"strings"

	gddl "countriesgdp/internal/ddl"
)

// KeyText is the type of text primary key columns. 450 characters is the
// widest NVARCHAR that fits SQL Server's 900-byte index key limit.
const KeyText = "NVARCHAR(450)"

// MapType maps a logical type into a SQL Server column type.
//
//	integer/int/bigint -> BIGINT
//	real/float/double  -> FLOAT (8-byte)
//	everything else    -> NVARCHAR(MAX)
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// Table returns the SQL Server definition of the countries_gdp layout under
// name, which may be schema-qualified ("dbo.countries_gdp").
func Table(name string) gddl.TableDef {
	t := gddl.FromLogical(name, gddl.CountriesGDP, MapType)
	for i, c := range t.Columns {
		if c.PrimaryKey && c.SQLType == "NVARCHAR(MAX)" {
			t.Columns[i].SQLType = KeyText
		}
	}
	return t
}

// Placeholder returns the 1-based go-mssqldb bind marker "@pi".
func Placeholder(i int) string { return "@p" + strconv.Itoa(i) }
