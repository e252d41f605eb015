package asp

import (
	"fmt"
	"strings"

	"dynaf/internal/af"
)

// Fact is one ground fact of the encoding, either argument/1 or
// attack/2. The symbol rendering is stable: the same framework entity
// always encodes to the same text, so accumulated engine state stays
// consistent across fragments.
type Fact struct {
	Predicate string
	Args      []string
}

// ArgumentFact encodes the presence of an argument.
func ArgumentFact(id string) Fact {
	return Fact{Predicate: "argument", Args: []string{id}}
}

// AttackFact encodes the presence of an attack.
func AttackFact(att af.Attack) Fact {
	return Fact{Predicate: "attack", Args: []string{att.From, att.To}}
}

// Symbol renders the fact as a ground term, without trailing period.
func (f Fact) Symbol() string {
	quoted := make([]string, len(f.Args))
	for i, a := range f.Args {
		quoted[i] = quoteTerm(a)
	}
	return fmt.Sprintf("%s(%s)", f.Predicate, strings.Join(quoted, ","))
}

// quoteTerm renders an argument identifier as an ASP term. Identifiers
// that are valid bare constants stay bare; everything else is quoted so
// arbitrary external names survive the encoding unchanged.
func quoteTerm(id string) string {
	if bareConstant(id) {
		return id
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range id {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func bareConstant(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_' && i > 0:
		case c >= 'A' && c <= 'Z' && i > 0:
		default:
			return false
		}
	}
	// a leading digit is fine (numeric constant) but a leading upper
	// case letter would read as a variable
	c := id[0]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// StripQuotes undoes quoteTerm for symbols read back from models.
func StripQuotes(symbol string) string {
	if len(symbol) >= 2 && symbol[0] == '"' && symbol[len(symbol)-1] == '"' {
		inner := symbol[1 : len(symbol)-1]
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		inner = strings.ReplaceAll(inner, `\\`, `\`)
		return inner
	}
	return symbol
}

// Program is a full base encoding: the semantics' rule program plus the
// instance facts, all declared external so later fragments can retract
// them.
type Program struct {
	Semantics Semantics
	Rules     string
	Show      string
	Facts     []Fact
	Seq       uint64
}

// Text renders the complete program for a text-based engine. Facts are
// emitted as plain ground facts; externals-based engines consume the
// Facts slice directly instead.
func (p Program) Text() string {
	var b strings.Builder
	b.WriteString(p.Rules)
	b.WriteByte('\n')
	for _, f := range p.Facts {
		b.WriteString(f.Symbol())
		b.WriteString(".\n")
	}
	b.WriteByte('\n')
	b.WriteString(p.Show)
	return b.String()
}

// Assignment flips the truth value of one external fact. Value false is
// an explicit retraction marker: nothing is ever removed transparently
// from an accumulated program.
type Assignment struct {
	Fact  Fact
	Value bool
}

// Fragment is the incremental encoding of a single applied update.
// Fragments accumulate in submission order; each carries the sequence
// number of the update it reflects.
type Fragment struct {
	Seq         uint64
	Assignments []Assignment
}

// EncodeBase builds the full encoding of the snapshot under the
// semantics. Grounded snapshots get an empty rule program; the
// deterministic engine supplies its own fixpoint rules.
func EncodeBase(snap af.Snapshot, sem Semantics) (Program, error) {
	p := Program{
		Semantics: sem,
		Show:      showProgram,
		Seq:       snap.Seq,
		Facts:     make([]Fact, 0, len(snap.Args)+len(snap.Attacks)),
	}
	if !sem.Deterministic() {
		rules, err := sem.Rules()
		if err != nil {
			return Program{}, err
		}
		p.Rules = rules
	}
	for _, id := range snap.Args {
		p.Facts = append(p.Facts, ArgumentFact(id))
	}
	for _, att := range snap.Attacks {
		p.Facts = append(p.Facts, AttackFact(att))
	}
	return p, nil
}

// EncodeDelta translates one applied update into the fragment of truth
// assignments reflecting it. Additions assert new external facts;
// removals retract them explicitly, including attacks swept by a
// cascading argument removal.
func EncodeDelta(d af.Delta) Fragment {
	frag := Fragment{Seq: d.Seq}
	for _, id := range d.AddedArgs {
		frag.Assignments = append(frag.Assignments, Assignment{Fact: ArgumentFact(id), Value: true})
	}
	for _, att := range d.AddedAtts {
		frag.Assignments = append(frag.Assignments, Assignment{Fact: AttackFact(att), Value: true})
	}
	for _, att := range d.RemovedAtts {
		frag.Assignments = append(frag.Assignments, Assignment{Fact: AttackFact(att), Value: false})
	}
	for _, id := range d.RemovedArgs {
		frag.Assignments = append(frag.Assignments, Assignment{Fact: ArgumentFact(id), Value: false})
	}
	return frag
}
