// Package af holds the in-memory model of Dung-style argumentation
// frameworks: a set of arguments, an attack relation between them, and an
// ordered log of structural updates. The model is the single source of
// truth for what the framework looks like at a given sequence number; the
// solving pipeline never mutates it except through ApplyUpdate.
package af

import (
	"fmt"
	"sort"
	"sync"
)

// Attack is a directed edge from one argument to another. Attacks form a
// set: inserting the same pair twice is a validation error, not a no-op.
type Attack struct {
	From string
	To   string
}

func (a Attack) String() string {
	return fmt.Sprintf("%s->%s", a.From, a.To)
}

// Framework is a mutable argumentation framework. Every attack endpoint
// is guaranteed to be a present argument; the sequence number advances by
// exactly one per successfully applied update.
type Framework struct {
	mu      sync.RWMutex
	args    map[string]struct{}
	attacks map[Attack]struct{}
	seq     uint64
}

// Snapshot is a read-only, deterministic view of a Framework at a single
// sequence number. Arguments and attacks are sorted so two snapshots of
// equal frameworks compare equal.
type Snapshot struct {
	Args    []string
	Attacks []Attack
	Seq     uint64
}

// Delta describes the concrete structural changes one accepted update
// produced. A cascading argument removal reports the swept attacks here,
// so the encoder sees every retraction explicitly.
type Delta struct {
	Seq         uint64
	AddedArgs   []string
	RemovedArgs []string
	AddedAtts   []Attack
	RemovedAtts []Attack
}

// New returns an empty framework at sequence number zero.
func New() *Framework {
	return &Framework{
		args:    make(map[string]struct{}),
		attacks: make(map[Attack]struct{}),
	}
}

// NewFromInstance builds a framework from a parsed instance file. The
// instance must already satisfy the endpoint invariant; a dangling attack
// is a validation error. Duplicate arguments and attacks in the input are
// tolerated, since both collections are sets.
func NewFromInstance(args []string, attacks []Attack) (*Framework, error) {
	f := New()
	for _, id := range args {
		f.args[id] = struct{}{}
	}
	for _, att := range attacks {
		if _, ok := f.args[att.From]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("attack %s references unknown argument %q", att, att.From)}
		}
		if _, ok := f.args[att.To]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("attack %s references unknown argument %q", att, att.To)}
		}
		f.attacks[att] = struct{}{}
	}
	return f, nil
}

// Seq returns the current update sequence number.
func (f *Framework) Seq() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seq
}

// HasArgument reports whether the argument is present.
func (f *Framework) HasArgument(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.args[id]
	return ok
}

// HasAttack reports whether the attack is present.
func (f *Framework) HasAttack(att Attack) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.attacks[att]
	return ok
}

// Snapshot returns a sorted copy of the current state.
func (f *Framework) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := Snapshot{
		Args:    make([]string, 0, len(f.args)),
		Attacks: make([]Attack, 0, len(f.attacks)),
		Seq:     f.seq,
	}
	for id := range f.args {
		snap.Args = append(snap.Args, id)
	}
	for att := range f.attacks {
		snap.Attacks = append(snap.Attacks, att)
	}
	sort.Strings(snap.Args)
	sort.Slice(snap.Attacks, func(i, j int) bool {
		if snap.Attacks[i].From != snap.Attacks[j].From {
			return snap.Attacks[i].From < snap.Attacks[j].From
		}
		return snap.Attacks[i].To < snap.Attacks[j].To
	})
	return snap
}

// ApplyUpdate validates op against the current state and, on success,
// mutates the framework and advances the sequence number. Validation is
// side-effect free: a rejected op leaves state and sequence untouched.
func (f *Framework) ApplyUpdate(op UpdateOp) (Delta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.validateLocked(op); err != nil {
		return Delta{}, err
	}

	f.seq++
	d := Delta{Seq: f.seq}
	switch op.Kind {
	case AddArgument:
		f.args[op.Arg] = struct{}{}
		d.AddedArgs = []string{op.Arg}
	case RemoveArgument:
		if op.Cascade {
			for att := range f.attacks {
				if att.From == op.Arg || att.To == op.Arg {
					delete(f.attacks, att)
					d.RemovedAtts = append(d.RemovedAtts, att)
				}
			}
			sort.Slice(d.RemovedAtts, func(i, j int) bool {
				if d.RemovedAtts[i].From != d.RemovedAtts[j].From {
					return d.RemovedAtts[i].From < d.RemovedAtts[j].From
				}
				return d.RemovedAtts[i].To < d.RemovedAtts[j].To
			})
		}
		delete(f.args, op.Arg)
		d.RemovedArgs = []string{op.Arg}
	case AddAttack:
		f.attacks[op.Att] = struct{}{}
		d.AddedAtts = []Attack{op.Att}
	case RemoveAttack:
		delete(f.attacks, op.Att)
		d.RemovedAtts = []Attack{op.Att}
	}
	return d, nil
}

func (f *Framework) validateLocked(op UpdateOp) error {
	switch op.Kind {
	case AddArgument:
		if op.Arg == "" {
			return &ValidationError{Op: op, Reason: "empty argument identifier"}
		}
		if _, ok := f.args[op.Arg]; ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("argument %q already exists", op.Arg)}
		}
	case RemoveArgument:
		if _, ok := f.args[op.Arg]; !ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("argument %q does not exist", op.Arg)}
		}
		if !op.Cascade {
			for att := range f.attacks {
				if att.From == op.Arg || att.To == op.Arg {
					return &ValidationError{Op: op, Reason: fmt.Sprintf("argument %q still has incident attack %s; remove it first or set Cascade", op.Arg, att)}
				}
			}
		}
	case AddAttack:
		if _, ok := f.args[op.Att.From]; !ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("attack source %q does not exist", op.Att.From)}
		}
		if _, ok := f.args[op.Att.To]; !ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("attack target %q does not exist", op.Att.To)}
		}
		if _, ok := f.attacks[op.Att]; ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("attack %s already exists", op.Att)}
		}
	case RemoveAttack:
		if _, ok := f.attacks[op.Att]; !ok {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("attack %s does not exist", op.Att)}
		}
	default:
		return &ValidationError{Op: op, Reason: fmt.Sprintf("unknown update kind %d", op.Kind)}
	}
	return nil
}
