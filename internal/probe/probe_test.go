package probe

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"countriesgdp/internal/datasource/file"
	"countriesgdp/internal/parser/htmltable"
	"countriesgdp/internal/records"
)

const page = `<table class="wikitable sortable"><tbody>
<tr class="static-row-header"><td><a>World</a></td><td><a>-</a></td><td>105,000,000</td><td>2023</td></tr>
<tr><td><a>United States</a></td><td><a>Americas</a></td><td>27,360,935</td><td>2023</td></tr>
<tr><td><a>Japan</a></td><td><a>Asia</a></td><td>4,231,141</td><td>2023</td></tr>
<tr><td><a>Atlantis</a></td><td><a>Ocean</a></td><td>—</td><td>—</td></tr>
</tbody></table>`

func snapshot(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(p, []byte(page), 0o644))
	return p
}

func TestProbe(t *testing.T) {
	t.Parallel()

	src := file.NewLocal(snapshot(t))
	save := filepath.Join(t.TempDir(), "saved.html")

	res, err := Probe(context.Background(), src, htmltable.DefaultSelectors(), Options{Sample: 2, SavePath: save})
	require.NoError(t, err)

	require.Equal(t, 3, res.Rows)
	require.Equal(t, 2, res.Numeric)
	require.Equal(t, len(page), res.Bytes)
	require.Len(t, res.Sample, 2)
	require.Equal(t, "United States", res.Sample[0].CountryName)
	require.Equal(t, records.Float(4231141), res.Sample[1].GDP)

	saved, err := os.ReadFile(save)
	require.NoError(t, err)
	require.Equal(t, page, string(saved))
}

func TestProbeDefaultSample(t *testing.T) {
	t.Parallel()

	res, err := Probe(context.Background(), file.NewLocal(snapshot(t)), htmltable.DefaultSelectors(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Sample, 3)
}

func TestProbeMissingSource(t *testing.T) {
	t.Parallel()

	_, err := Probe(context.Background(), file.NewLocal(filepath.Join(t.TempDir(), "nope.html")),
		htmltable.DefaultSelectors(), Options{})
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	t.Parallel()

	res := Result{
		Source:  "file:page.html",
		Bytes:   10,
		Rows:    3,
		Numeric: 1,
		Sample: []records.Record{
			{CountryName: "Japan", Region: "Asia", GDP: records.Float(4231141), Year: records.Int(2023)},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, res.Render(&buf))

	out := buf.String()
	require.Contains(t, out, "Japan")
	require.Contains(t, out, "4231141")
	require.True(t, strings.HasSuffix(out, "source=file:page.html size=\"10 B\" rows=3 numeric_gdp=1\n"), out)
}
