package transformer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"countriesgdp/internal/records"
)

// stageFunc adapts a function to Stage for tests.
type stageFunc struct {
	name string
	fn   func(records.Record) (records.Record, error)
}

func (s stageFunc) Name() string { return s.name }
func (s stageFunc) Apply(_ context.Context, r records.Record) (records.Record, error) {
	return s.fn(r)
}

func TestChainRunsInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	mk := func(name string) Stage {
		return stageFunc{name: name, fn: func(r records.Record) (records.Record, error) {
			calls = append(calls, name)
			r.Region += name
			return r, nil
		}}
	}

	c := Chain{mk("a"), mk("b"), mk("c")}
	got, err := c.Apply(context.Background(), records.Record{CountryName: "X"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Region != "abc" {
		t.Fatalf("Region = %q, want abc", got.Region)
	}
	if !reflect.DeepEqual(calls, []string{"a", "b", "c"}) {
		t.Fatalf("calls = %v", calls)
	}
}

func TestChainStopsOnDrop(t *testing.T) {
	t.Parallel()

	reached := false
	c := Chain{
		stageFunc{name: "validate", fn: func(r records.Record) (records.Record, error) {
			return r, &DropError{Stage: "validate", Key: r.CountryName, Reason: ReasonNotNumeric}
		}},
		stageFunc{name: "sink", fn: func(r records.Record) (records.Record, error) {
			reached = true
			return r, nil
		}},
	}

	_, err := c.Apply(context.Background(), records.Record{CountryName: "Nowhere"})
	d, ok := AsDrop(err)
	if !ok {
		t.Fatalf("expected DropError, got %v", err)
	}
	if d.Stage != "validate" || d.Key != "Nowhere" || d.Reason != ReasonNotNumeric {
		t.Fatalf("drop = %+v", d)
	}
	if reached {
		t.Fatalf("stage after drop must not run")
	}
}

func TestAsDropIgnoresFatal(t *testing.T) {
	t.Parallel()

	if _, ok := AsDrop(errors.New("disk full")); ok {
		t.Fatalf("plain error classified as drop")
	}
	wrapped := fmt.Errorf("row 3: %w", &DropError{Stage: "dedup", Key: "Japan", Reason: ReasonDuplicate})
	if _, ok := AsDrop(wrapped); !ok {
		t.Fatalf("wrapped drop not detected")
	}
}

func TestEmptyChainForwards(t *testing.T) {
	t.Parallel()

	in := records.Record{CountryName: "Japan", GDP: records.Float(1)}
	got, err := Chain{}.Apply(context.Background(), in)
	if err != nil || got != in {
		t.Fatalf("got %+v, %v", got, err)
	}
}
