// Package asp translates argumentation frameworks and their updates into
// answer-set programs. The encoding follows the classic guess/check
// scheme over `argument/1` and `attack/2` facts: every model of the
// instantiated program corresponds to exactly one extension, exposed
// through the `in/1` predicate.
package asp

import (
	"fmt"
	"strings"
)

// Semantics is an acceptance criterion for argument sets.
type Semantics uint8

const (
	Admissible Semantics = iota + 1
	ConflictFree
	Complete
	Grounded
	Stable
)

func (s Semantics) String() string {
	switch s {
	case Admissible:
		return "admissible"
	case ConflictFree:
		return "conflict-free"
	case Complete:
		return "complete"
	case Grounded:
		return "grounded"
	case Stable:
		return "stable"
	default:
		return fmt.Sprintf("semantics(%d)", uint8(s))
	}
}

// Code returns the two-letter ICCMA task code for the semantics.
func (s Semantics) Code() string {
	switch s {
	case Admissible:
		return "AD"
	case ConflictFree:
		return "CF"
	case Complete:
		return "CO"
	case Grounded:
		return "GR"
	case Stable:
		return "ST"
	default:
		return "??"
	}
}

// ParseSemantics understands both the long names and the ICCMA codes.
func ParseSemantics(s string) (Semantics, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admissible", "ad":
		return Admissible, nil
	case "conflict-free", "conflictfree", "cf":
		return ConflictFree, nil
	case "complete", "co":
		return Complete, nil
	case "grounded", "ground", "gr":
		return Grounded, nil
	case "stable", "st":
		return Stable, nil
	default:
		return 0, fmt.Errorf("unknown semantics %q", s)
	}
}

// All lists the supported semantics in listing order.
func All() []Semantics {
	return []Semantics{Admissible, ConflictFree, Complete, Grounded, Stable}
}

// Deterministic reports whether the semantics admits exactly one
// extension per framework. Deterministic semantics can be solved by a
// fixpoint engine instead of model enumeration.
func (s Semantics) Deterministic() bool {
	return s == Grounded
}

// Rule programs per semantics. The guessed set is `in/1`, its complement
// `out/1`; integrity constraints prune guesses violating the acceptance
// conditions. Grounded has no guess program: it is the least fixpoint of
// the defense operator and is handled by the deterministic engine.

const rulesConflictFree = `%% guess a set S subset of A
in(X) :- not out(X), argument(X).
out(X) :- not in(X), argument(X).

%% S has to be conflict-free
:- in(X), in(Y), attack(X,Y).
`

const rulesAdmissible = rulesConflictFree + `
%% the argument X is defeated by the set S
defeated(X) :- in(Y), attack(Y,X).

%% the argument X is not defended by S
not_defended(X) :- attack(Y,X), not defeated(Y).

%% all arguments X in S need to be defended by S
:- in(X), not_defended(X).
`

const rulesComplete = rulesAdmissible + `
%% completeness: every argument defended by S belongs to S
:- out(X), not not_defended(X).
`

const rulesStable = rulesConflictFree + `
%% the argument X is defeated by the set S
defeated(X) :- in(Y), attack(Y,X).

%% stability: S attacks everything outside of S
:- out(X), not defeated(X).
`

// showProgram projects models down to the member arguments.
const showProgram = `#show.
#show X : in(X).
`

// Rules returns the semantics' check program, without facts.
func (s Semantics) Rules() (string, error) {
	switch s {
	case ConflictFree:
		return rulesConflictFree, nil
	case Admissible:
		return rulesAdmissible, nil
	case Complete:
		return rulesComplete, nil
	case Stable:
		return rulesStable, nil
	case Grounded:
		return "", fmt.Errorf("grounded semantics has no guess program; use a deterministic engine")
	default:
		return "", fmt.Errorf("unknown semantics %q", s)
	}
}
