package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(Reset)
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("gdp", "fetch", nil, 2*time.Second)
	RecordStep("gdp", "pipeline", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2/2", len(fb.callsCounters), len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StepTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v", cc0)
	}
	if cc0.labels["step"] != "fetch" || cc0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %#v", cc0.labels)
	}
	if got := fb.callsCounters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1].status = %q; want failure", got)
	}

	h1 := fb.callsHistograms[1]
	if h1.name != StepDurationSeconds || h1.value != 1.5 {
		t.Fatalf("hist[1] = %#v", h1)
	}
}

func TestRecordRow(t *testing.T) {
	fb := install(t)

	RecordRow("gdp", KindInserted, 3)
	RecordRow("gdp", KindScraped, 0)
	RecordRow("gdp", KindScraped, -2)

	if len(fb.callsCounters) != 1 {
		t.Fatalf("expected 1 counter call, got %d", len(fb.callsCounters))
	}
	c := fb.callsCounters[0]
	if c.name != RowsTotal || c.delta != 3 || c.labels["kind"] != KindInserted || c.labels["job"] != "gdp" {
		t.Fatalf("counter = %#v", c)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fb := install(t)

	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d; want 1", fb.flushCount)
	}
}

func TestNopBackendDefault(t *testing.T) {
	Reset()
	RecordRow("gdp", KindScraped, 1)
	RecordStep("gdp", "fetch", nil, time.Millisecond)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}
