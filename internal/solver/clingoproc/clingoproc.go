// Package clingoproc adapts an external clingo binary to the solver
// engine interface. The binary location comes from configuration, not
// ambient state, so sessions against different engine builds can coexist.
//
// A subprocess has no persistent ground-once state, so the session keeps
// the cumulative program itself: the rule program plus the current truth
// assignment of every fact ever declared. Extend updates that assignment;
// Solve renders the currently-true facts and runs one clingo invocation.
// This is the transparent full-recompute realization of the incremental
// contract; the rendered program at sequence N is identical to a fresh
// base encoding of the framework at N, which is what makes the
// incremental-equivalence property hold by construction.
package clingoproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dynaf/internal/asp"
	"dynaf/internal/solver"
)

// DefaultBinary is used when no path is configured.
const DefaultBinary = "clingo"

// Engine launches clingo subprocesses.
type Engine struct {
	binary string
	logger *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine around the clingo binary at path. The binary is
// resolved eagerly: a missing engine is a start-up error, not a solve
// error.
func New(path string, opts ...Option) (*Engine, error) {
	if path == "" {
		path = DefaultBinary
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, &solver.EngineInitError{Engine: "clingo", Err: fmt.Errorf("binary %q not found: %w", path, err)}
	}
	e := &Engine{binary: resolved, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Name() string { return "clingo" }

// Incremental is true: the session accumulates fragment state across
// Extend calls even though each Solve re-runs the binary.
func (e *Engine) Incremental() bool { return true }

// Open loads the base program into a new session.
func (e *Engine) Open(ctx context.Context, prog asp.Program) (solver.Session, error) {
	if prog.Semantics.Deterministic() {
		return nil, &solver.EngineInitError{
			Engine: "clingo",
			Err:    fmt.Errorf("%s semantics is handled by the deterministic engine", prog.Semantics),
		}
	}
	s := &session{
		engine: e,
		rules:  prog.Rules,
		show:   prog.Show,
		truth:  make(map[string]bool, len(prog.Facts)),
	}
	for _, f := range prog.Facts {
		s.truth[f.Symbol()] = true
	}
	return s, nil
}

type session struct {
	engine *Engine

	mu     sync.Mutex
	rules  string
	show   string
	truth  map[string]bool
	closed bool
}

// Extend folds the fragment's truth assignments into the accumulated
// state. Retractions stay in the table with value false; they are
// explicit markers, not deletions, so re-adding the same entity later is
// a plain flip back to true.
func (s *session) Extend(ctx context.Context, frag asp.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("clingo session already closed")
	}
	for _, a := range frag.Assignments {
		s.truth[a.Fact.Symbol()] = a.Value
	}
	return nil
}

// render produces the program text for the current truth assignment.
// Symbols render in sorted order so the program is deterministic.
func (s *session) render() string {
	symbols := make([]string, 0, len(s.truth))
	for sym, val := range s.truth {
		if val {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString(s.rules)
	b.WriteByte('\n')
	for _, sym := range symbols {
		b.WriteString(sym)
		b.WriteString(".\n")
	}
	b.WriteByte('\n')
	b.WriteString(s.show)
	return b.String()
}

func (s *session) Solve(ctx context.Context) ([]solver.Model, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("clingo session already closed")
	}
	program := s.render()
	binary := s.engine.binary
	logger := s.engine.logger
	s.mu.Unlock()

	// --outf=2: JSON output; --models=0: enumerate all models.
	cmd := exec.CommandContext(ctx, binary, "--outf=2", "--models=0", "-")
	cmd.Stdin = strings.NewReader(program)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running clingo", zap.Int("program_bytes", len(program)))
	runErr := cmd.Run()
	if ctx.Err() != nil {
		// CommandContext already killed the solve; the accumulated
		// state is untouched, so the session stays usable.
		return nil, ctx.Err()
	}
	if runErr != nil {
		// clingo exits nonzero for SAT (10), UNSAT (20) and EXHAUST
		// (30); only treat it as failure when no parseable output came
		// back.
		if stdout.Len() == 0 {
			return nil, &solver.EncodingError{
				Engine: "clingo",
				Detail: strings.TrimSpace(stderr.String()),
				Err:    runErr,
			}
		}
	}
	return parseModels(stdout.Bytes())
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.truth = nil
	return nil
}

// clingo --outf=2 output shape, reduced to the parts consumed here.
type clingoOutput struct {
	Result string `json:"Result"`
	Call   []struct {
		Witnesses []struct {
			Value []string `json:"Value"`
		} `json:"Witnesses"`
	} `json:"Call"`
}

// parseModels extracts the shown atoms of every witness. The show
// directive projects models down to bare argument terms, so each value
// is one (possibly quoted) identifier.
func parseModels(out []byte) ([]solver.Model, error) {
	var parsed clingoOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, &solver.EncodingError{Engine: "clingo", Detail: "unparseable solver output", Err: err}
	}

	switch parsed.Result {
	case "SATISFIABLE", "UNSATISFIABLE", "SATISFIABLE+", "OPTIMUM FOUND":
	case "UNKNOWN":
		return nil, fmt.Errorf("clingo reported UNKNOWN result")
	}

	var models []solver.Model
	for _, call := range parsed.Call {
		for _, w := range call.Witnesses {
			atoms := make([]string, 0, len(w.Value))
			for _, v := range w.Value {
				atoms = append(atoms, asp.StripQuotes(v))
			}
			models = append(models, solver.Model{Atoms: atoms})
		}
	}
	return models, nil
}
