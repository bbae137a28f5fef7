package ddl

import (
	"fmt"
	"strings"

	gddl "countriesgdp/internal/ddl"
)

// BuildCreateTableSQL returns a T-SQL script that creates t when it does not
// exist yet:
//
//	IF OBJECT_ID(N'[dbo].[countries_gdp]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[countries_gdp] (
//	    [country_name] NVARCHAR(450) NOT NULL,
//	    ...
//	    PRIMARY KEY ([country_name])
//	  );
//	END;
//
// Primary key columns are always NOT NULL; SQL Server rejects nullable ones.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("mssql ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("mssql ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("mssql ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	q := QuoteFQN(fqn)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(q, "'", "''"), q, strings.Join(cols, ",\n    "),
	), nil
}

// BuildInsertSQL returns a single-row INSERT for t with @p1..@pN markers.
func BuildInsertSQL(t gddl.TableDef) (string, error) {
	if strings.TrimSpace(t.FQN) == "" || len(t.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: insert needs a table name and columns")
	}
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = QuoteIdent(c.Name)
		marks[i] = Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(t.FQN), strings.Join(names, ", "), strings.Join(marks, ", ")), nil
}

// QuoteIdent bracket-quotes id, escaping closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN quotes each dot-separated segment of fqn ("dbo.t" -> [dbo].[t]).
func QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
