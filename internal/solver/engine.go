// Package solver drives an answer-set solving engine through an
// incremental session: open a base program, extend it with fragments as
// updates arrive, solve, and close. The engine itself is a capability
// behind the Engine interface, never a hard-wired library call, so tests
// run against a scripted fake and the concrete engine is swappable.
package solver

import (
	"context"
	"errors"
	"fmt"

	"dynaf/internal/asp"
)

// Model is one satisfying model of the loaded program. Atoms are the
// shown argument identifiers, already unquoted. Models within a solve
// call form an unordered set; arrival order carries no meaning.
type Model struct {
	Atoms []string
}

// Session is live incremental engine state, exclusively owned by one
// Driver. Solve enumerates the models of the currently loaded program;
// it is finite per invocation and restartable per call.
type Session interface {
	Extend(ctx context.Context, frag asp.Fragment) error
	Solve(ctx context.Context) ([]Model, error)
	Close() error
}

// Engine creates sessions. Incremental reports whether Extend applies
// fragments to accumulated engine state; a non-incremental engine forces
// the caller onto the re-encode-from-scratch path instead.
type Engine interface {
	Name() string
	Incremental() bool
	Open(ctx context.Context, prog asp.Program) (Session, error)
}

// ErrSolveTimeout marks a solve that exceeded the configured budget. The
// session stays usable; the result for that sequence point is
// inconclusive, which is distinct from an empty extension set.
var ErrSolveTimeout = errors.New("solve timed out")

// EngineInitError reports that the external engine is unavailable or
// misconfigured. Fatal at start-up.
type EngineInitError struct {
	Engine string
	Err    error
}

func (e *EngineInitError) Error() string {
	return fmt.Sprintf("engine %s failed to initialize: %v", e.Engine, e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }

// EncodingError reports that the engine rejected a program the encoder
// produced. That is an internal invariant violation, not bad user input,
// and aborts the run.
type EncodingError struct {
	Engine string
	Detail string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("engine %s rejected encoded program: %s", e.Engine, e.Detail)
}

func (e *EncodingError) Unwrap() error { return e.Err }
