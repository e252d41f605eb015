// Package solvertest provides a scripted in-memory engine for testing
// the solving pipeline without a native solver. The fake replays
// prepared model sets per solve call and records every lifecycle event
// so tests can assert on session handling.
package solvertest

import (
	"context"
	"sync"
	"time"

	"dynaf/internal/asp"
	"dynaf/internal/solver"
)

// Fake is a scripted solver.Engine. Script holds the model sets returned
// by successive Solve calls; when exhausted, the last set is repeated, so
// re-solving an unchanged session is idempotent by construction.
type Fake struct {
	Script         [][]solver.Model
	OpenErr        error
	ExtendErr      error
	SolveErr       error
	SolveDelay     time.Duration
	NonIncremental bool

	mu       sync.Mutex
	sessions []*FakeSession
}

// NewFake returns an incremental fake replaying script.
func NewFake(script ...[]solver.Model) *Fake {
	return &Fake{Script: script}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Incremental() bool { return !f.NonIncremental }

// Open records the base program and hands out a session.
func (f *Fake) Open(ctx context.Context, prog asp.Program) (solver.Session, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	s := &FakeSession{engine: f, Base: prog}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

// Sessions returns every session ever opened, in order.
func (f *Fake) Sessions() []*FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeSession(nil), f.sessions...)
}

// FakeSession records the calls made against one opened session.
type FakeSession struct {
	engine *Fake

	mu        sync.Mutex
	Base      asp.Program
	Fragments []asp.Fragment
	Solves    int
	Closed    bool
}

func (s *FakeSession) Extend(ctx context.Context, frag asp.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.ExtendErr != nil {
		return s.engine.ExtendErr
	}
	s.Fragments = append(s.Fragments, frag)
	return nil
}

func (s *FakeSession) Solve(ctx context.Context) ([]solver.Model, error) {
	s.mu.Lock()
	delay := s.engine.SolveDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.SolveErr != nil {
		return nil, s.engine.SolveErr
	}

	idx := s.Solves
	s.Solves++
	script := s.engine.Script
	if len(script) == 0 {
		return nil, nil
	}
	if idx >= len(script) {
		idx = len(script) - 1
	}
	models := make([]solver.Model, len(script[idx]))
	copy(models, script[idx])
	return models, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Models is a convenience constructor for scripted model sets.
func Models(atomSets ...[]string) []solver.Model {
	out := make([]solver.Model, len(atomSets))
	for i, atoms := range atomSets {
		out[i] = solver.Model{Atoms: atoms}
	}
	return out
}
