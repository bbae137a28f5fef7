// Package sink is the terminal stage of the pipeline: it drops rows whose key
// was already accepted this run, then persists the rest one row at a time.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"countriesgdp/internal/records"
	"countriesgdp/internal/storage"
	"countriesgdp/internal/transformer"
	"countriesgdp/internal/transformer/builtin"
)

// Policy decides what a primary key conflict at the store means.
type Policy string

const (
	// PolicyFail aborts the run on the first conflict.
	PolicyFail Policy = "fail"
	// PolicySkip reports the conflicting row as dropped and continues.
	PolicySkip Policy = "skip"
)

// ParsePolicy accepts "fail", "skip" or "" (fail).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("sink: unknown on_conflict policy %q (want fail|skip)", s)
	}
}

var (
	// ErrNotOpen is returned by Apply before Open.
	ErrNotOpen = errors.New("sink: not open")
	// ErrClosed is returned by Apply and Open after Close.
	ErrClosed = errors.New("sink: closed")
)

type state uint8

const (
	uninitialized state = iota
	opened
	accepting
	closed
)

// Options configure a Sink.
type Options struct {
	// Store selects the backend; the Sink opens and owns the handle.
	Store storage.Config
	// OnConflict is the conflict policy; empty means PolicyFail.
	OnConflict Policy
	// SkipCreate leaves the table alone on Open (it must already exist).
	SkipCreate bool
}

// Sink de-duplicates and persists records. It is single-goroutine.
type Sink struct {
	opts  Options
	dedup *builtin.DeDup
	repo  storage.Repository
	state state

	inserted int64
}

var _ transformer.Stage = (*Sink)(nil)

// New returns an unopened Sink.
func New(opts Options) *Sink {
	if opts.OnConflict == "" {
		opts.OnConflict = PolicyFail
	}
	return &Sink{opts: opts, dedup: builtin.NewDeDup()}
}

// Name implements transformer.Stage.
func (s *Sink) Name() string { return "sink" }

// Open acquires the store handle and ensures the table exists. Callers must
// defer Close right after a successful Open.
func (s *Sink) Open(ctx context.Context) error {
	switch s.state {
	case closed:
		return ErrClosed
	case opened, accepting:
		return nil
	}

	repo, err := storage.New(ctx, s.opts.Store)
	if err != nil {
		return fmt.Errorf("sink: open %s store: %w", s.opts.Store.Kind, err)
	}
	if !s.opts.SkipCreate {
		if err := repo.EnsureTable(ctx); err != nil {
			repo.Close()
			return fmt.Errorf("sink: ensure table %s: %w", s.opts.Store.TableName(), err)
		}
	}
	s.repo = repo
	s.state = opened
	return nil
}

// Apply implements transformer.Stage. Duplicates within the run come back as
// a *transformer.DropError. A store conflict is a drop under PolicySkip and a
// fatal error (matching storage.ErrConflict) under PolicyFail.
func (s *Sink) Apply(ctx context.Context, rec records.Record) (records.Record, error) {
	switch s.state {
	case uninitialized:
		return rec, ErrNotOpen
	case closed:
		return rec, ErrClosed
	}
	s.state = accepting

	if _, err := s.dedup.Apply(ctx, rec); err != nil {
		return rec, err
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrConflict) && s.opts.OnConflict == PolicySkip {
			d := &transformer.DropError{
				Stage:  s.Name(),
				Key:    rec.Key(),
				Reason: transformer.ReasonConflict,
			}
			var ce *storage.ConflictError
			if errors.As(err, &ce) {
				d.Detail = "constraint=" + ce.Constraint
			}
			return rec, d
		}
		return rec, err
	}
	s.inserted++
	return rec, nil
}

// Inserted returns the number of rows written by this Sink.
func (s *Sink) Inserted() int64 { return s.inserted }

// Count returns the number of rows in the store table, including rows from
// earlier runs.
func (s *Sink) Count(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, ErrNotOpen
	}
	return s.repo.Count(ctx)
}

// Close releases the store handle. It is safe to call more than once and on
// a Sink that was never opened.
func (s *Sink) Close() {
	if s.state == closed {
		return
	}
	if s.repo != nil {
		s.repo.Close()
		s.repo = nil
	}
	s.state = closed
}
