package builtin

import (
	"context"
	"fmt"

	"countriesgdp/internal/records"
	"countriesgdp/internal/transformer"
)

// RequireNumeric drops records whose GDP did not parse to a float. No other
// field is checked: empty names, empty regions and raw years pass.
type RequireNumeric struct{}

var _ transformer.Stage = RequireNumeric{}

func (RequireNumeric) Name() string { return "validate" }

// Apply forwards rec unchanged when rec.GDP is KindFloat.
func (v RequireNumeric) Apply(_ context.Context, rec records.Record) (records.Record, error) {
	if rec.GDP.Kind() == records.KindFloat {
		return rec, nil
	}
	return rec, &transformer.DropError{
		Stage:  v.Name(),
		Key:    rec.Key(),
		Reason: transformer.ReasonNotNumeric,
		Detail: fmt.Sprintf("gdp=%q", rec.GDP.Raw()),
	}
}
