// Package transformer defines the record stages that run after field
// normalization and the ordered Chain that composes them.
//
// A stage either forwards a record (possibly modified), drops it with a
// *DropError, or fails with any other error. Drops are per-row and
// recoverable; every other error is fatal for the run. The caller decides
// which is which with errors.As.
package transformer

import (
	"context"
	"errors"
	"fmt"

	"countriesgdp/internal/records"
)

// Stage processes one record.
type Stage interface {
	// Name is the short label used in logs and metrics ("validate", "dedup").
	Name() string
	// Apply returns the record to forward, a *DropError to discard it, or a
	// fatal error.
	Apply(ctx context.Context, rec records.Record) (records.Record, error)
}

// Chain is an ordered list of stages. Order is the slice order; there is no
// registry or priority.
type Chain []Stage

// Apply runs rec through every stage in order and stops at the first error.
func (c Chain) Apply(ctx context.Context, rec records.Record) (records.Record, error) {
	out := rec
	for _, s := range c {
		var err error
		out, err = s.Apply(ctx, out)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Drop reasons reported by the built-in stages.
const (
	ReasonNotNumeric = "gdp_not_numeric"
	ReasonDuplicate  = "duplicate_key"
	ReasonConflict   = "key_conflict"
)

// DropError reports a record discarded by a stage. It is not fatal.
type DropError struct {
	Stage  string
	Key    string
	Reason string
	Detail string
}

func (e *DropError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: dropped %q: %s", e.Stage, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: dropped %q: %s (%s)", e.Stage, e.Key, e.Reason, e.Detail)
}

// AsDrop reports whether err is (or wraps) a *DropError.
func AsDrop(err error) (*DropError, bool) {
	var d *DropError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
