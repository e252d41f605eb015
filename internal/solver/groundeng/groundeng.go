// Package groundeng computes the grounded extension with an embedded
// Datalog engine (Google Mangle) instead of an external answer-set
// solver. The grounded extension is the least fixpoint of the defense
// operator, so no model search is needed: the engine iterates the
// operator, evaluating each application as a stratified Datalog program
// until the accepted set stops growing.
package groundeng

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"dynaf/internal/af"
	"dynaf/internal/asp"
	"dynaf/internal/solver"
)

// One application of the defense operator: an argument is accepted when
// every attacker is defeated by the previously accepted set.
const stepProgram = `
Decl arg(X).
Decl att(X, Y).
Decl inprev(X).

defeated(X) :- inprev(Z), att(Z, X).
undefended(X) :- att(Y, X), !defeated(Y).
accepted(X) :- arg(X), !undefended(X).
`

// Engine evaluates the grounded semantics in process.
type Engine struct {
	programInfo *analysis.ProgramInfo
	preds       map[string]ast.PredicateSym
	logger      *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New analyzes the fixpoint step program once. Analysis failure means
// the engine itself is broken, reported as an initialization error.
func New(opts ...Option) (*Engine, error) {
	unit, err := parse.Unit(strings.NewReader(stepProgram))
	if err != nil {
		return nil, &solver.EngineInitError{Engine: "grounded", Err: fmt.Errorf("parsing step program: %w", err)}
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, &solver.EngineInitError{Engine: "grounded", Err: fmt.Errorf("analyzing step program: %w", err)}
	}

	e := &Engine{
		programInfo: info,
		preds:       make(map[string]ast.PredicateSym, len(info.Decls)),
		logger:      zap.NewNop(),
	}
	for sym := range info.Decls {
		e.preds[sym.Symbol] = sym
	}
	for _, name := range []string{"arg", "att", "inprev", "accepted"} {
		if _, ok := e.preds[name]; !ok {
			return nil, &solver.EngineInitError{Engine: "grounded", Err: fmt.Errorf("step program lacks predicate %s", name)}
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Name() string { return "grounded" }

func (e *Engine) Incremental() bool { return true }

// Open accepts only grounded-semantics programs; everything else needs
// model enumeration, which a Datalog engine cannot provide.
func (e *Engine) Open(ctx context.Context, prog asp.Program) (solver.Session, error) {
	if prog.Semantics != asp.Grounded {
		return nil, &solver.EngineInitError{
			Engine: "grounded",
			Err:    fmt.Errorf("semantics %s requires model enumeration", prog.Semantics),
		}
	}
	s := &session{
		engine: e,
		args:   make(map[string]bool),
		atts:   make(map[af.Attack]bool),
	}
	if err := s.apply(prog.Facts); err != nil {
		return nil, err
	}
	return s, nil
}

type session struct {
	engine *Engine

	mu     sync.Mutex
	args   map[string]bool
	atts   map[af.Attack]bool
	closed bool
}

func (s *session) apply(facts []asp.Fact) error {
	for _, f := range facts {
		switch f.Predicate {
		case "argument":
			if len(f.Args) != 1 {
				return fmt.Errorf("argument fact with %d terms", len(f.Args))
			}
			s.args[f.Args[0]] = true
		case "attack":
			if len(f.Args) != 2 {
				return fmt.Errorf("attack fact with %d terms", len(f.Args))
			}
			s.atts[af.Attack{From: f.Args[0], To: f.Args[1]}] = true
		default:
			return fmt.Errorf("unsupported fact predicate %q", f.Predicate)
		}
	}
	return nil
}

func (s *session) Extend(ctx context.Context, frag asp.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("grounded session already closed")
	}
	for _, a := range frag.Assignments {
		switch a.Fact.Predicate {
		case "argument":
			if len(a.Fact.Args) != 1 {
				return fmt.Errorf("argument fact with %d terms", len(a.Fact.Args))
			}
			s.args[a.Fact.Args[0]] = a.Value
		case "attack":
			if len(a.Fact.Args) != 2 {
				return fmt.Errorf("attack fact with %d terms", len(a.Fact.Args))
			}
			s.atts[af.Attack{From: a.Fact.Args[0], To: a.Fact.Args[1]}] = a.Value
		default:
			return fmt.Errorf("unsupported fact predicate %q", a.Fact.Predicate)
		}
	}
	return nil
}

// Solve iterates the defense operator from the empty set. The accepted
// set grows monotonically, so the loop terminates after at most one
// iteration per argument. Exactly one model is returned: the grounded
// extension, possibly empty.
func (s *session) Solve(ctx context.Context) ([]solver.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("grounded session already closed")
	}

	accepted := map[string]bool{}
	for rounds := 0; ; rounds++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := s.engine.step(s.args, s.atts, accepted)
		if err != nil {
			return nil, err
		}
		if len(next) == len(accepted) {
			break
		}
		accepted = next
		if rounds > len(s.args) {
			return nil, &solver.EncodingError{
				Engine: "grounded",
				Detail: "defense operator failed to reach a fixpoint",
			}
		}
	}

	atoms := make([]string, 0, len(accepted))
	for id := range accepted {
		atoms = append(atoms, id)
	}
	sort.Strings(atoms)
	return []solver.Model{{Atoms: atoms}}, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.args = nil
	s.atts = nil
	return nil
}

// step evaluates one application of the defense operator against a fresh
// fact store seeded with the framework and the previously accepted set.
func (e *Engine) step(args map[string]bool, atts map[af.Attack]bool, prev map[string]bool) (map[string]bool, error) {
	store := factstore.NewSimpleInMemoryStore()

	argSym := e.preds["arg"]
	attSym := e.preds["att"]
	prevSym := e.preds["inprev"]
	for id, alive := range args {
		if alive {
			store.Add(ast.Atom{Predicate: argSym, Args: []ast.BaseTerm{ast.String(id)}})
		}
	}
	for att, alive := range atts {
		// attacks dangling on retracted arguments carry no force
		if alive && args[att.From] && args[att.To] {
			store.Add(ast.Atom{Predicate: attSym, Args: []ast.BaseTerm{ast.String(att.From), ast.String(att.To)}})
		}
	}
	for id := range prev {
		store.Add(ast.Atom{Predicate: prevSym, Args: []ast.BaseTerm{ast.String(id)}})
	}

	if _, err := mengine.EvalProgramWithStats(e.programInfo, store); err != nil {
		return nil, &solver.EncodingError{Engine: "grounded", Detail: "datalog evaluation failed", Err: err}
	}

	next := make(map[string]bool, len(prev))
	err := store.GetFacts(ast.NewQuery(e.preds["accepted"]), func(atom ast.Atom) error {
		if len(atom.Args) != 1 {
			return fmt.Errorf("accepted atom with %d terms", len(atom.Args))
		}
		c, ok := atom.Args[0].(ast.Constant)
		if !ok {
			return fmt.Errorf("accepted atom with non-constant term %v", atom.Args[0])
		}
		next[c.Symbol] = true
		return nil
	})
	if err != nil {
		return nil, &solver.EncodingError{Engine: "grounded", Detail: "reading accepted facts", Err: err}
	}
	return next, nil
}
