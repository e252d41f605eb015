package af

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustFramework(t *testing.T, args []string, attacks []Attack) *Framework {
	t.Helper()
	f, err := NewFromInstance(args, attacks)
	if err != nil {
		t.Fatalf("NewFromInstance() error = %v", err)
	}
	return f
}

func TestNewFromInstanceRejectsDanglingAttack(t *testing.T) {
	_, err := NewFromInstance([]string{"a"}, []Attack{{From: "a", To: "b"}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("NewFromInstance() error = %v, want *ValidationError", err)
	}
}

func TestApplyUpdateAdvancesSequence(t *testing.T) {
	f := mustFramework(t, []string{"a", "b"}, nil)
	if f.Seq() != 0 {
		t.Fatalf("Seq() = %d, want 0", f.Seq())
	}

	d, err := f.ApplyUpdate(NewAddAttack("a", "b"))
	if err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	if d.Seq != 1 || f.Seq() != 1 {
		t.Fatalf("sequence = (%d, %d), want (1, 1)", d.Seq, f.Seq())
	}
	if !f.HasAttack(Attack{From: "a", To: "b"}) {
		t.Fatal("attack a->b missing after add")
	}
}

func TestApplyUpdateRejectionLeavesStateUntouched(t *testing.T) {
	f := mustFramework(t, []string{"a", "b"}, []Attack{{From: "a", To: "b"}})
	before := f.Snapshot()

	cases := []UpdateOp{
		NewAddArgument("a"),              // duplicate argument
		NewAddArgument(""),               // empty identifier
		NewAddAttack("a", "c"),           // unknown target
		NewAddAttack("c", "a"),           // unknown source
		NewAddAttack("a", "b"),           // duplicate attack
		NewRemoveAttack("b", "a"),        // absent attack
		NewRemoveArgument("c", false),    // absent argument
		NewRemoveArgument("a", false),    // incident attack, no cascade
		{Kind: UpdateKind(99), Arg: "a"}, // unknown kind
	}
	for _, op := range cases {
		_, err := f.ApplyUpdate(op)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("ApplyUpdate(%s) error = %v, want *ValidationError", op, err)
		}
	}

	if f.Seq() != 0 {
		t.Fatalf("Seq() = %d after rejected updates, want 0", f.Seq())
	}
	if diff := cmp.Diff(before, f.Snapshot()); diff != "" {
		t.Fatalf("snapshot changed by rejected updates (-before +after):\n%s", diff)
	}
}

func TestRemoveArgumentCascade(t *testing.T) {
	f := mustFramework(t, []string{"a", "b", "c"}, []Attack{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "c", To: "b"},
	})

	d, err := f.ApplyUpdate(NewRemoveArgument("b", true))
	if err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}

	wantRemoved := []Attack{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "b"}}
	if diff := cmp.Diff(wantRemoved, d.RemovedAtts); diff != "" {
		t.Fatalf("cascaded attacks mismatch (-want +got):\n%s", diff)
	}

	snap := f.Snapshot()
	want := Snapshot{Args: []string{"a", "c"}, Attacks: []Attack{}, Seq: 1}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveArgumentAfterManualAttackRemoval(t *testing.T) {
	f := mustFramework(t, []string{"a", "b"}, []Attack{{From: "a", To: "b"}})

	if _, err := f.ApplyUpdate(NewRemoveArgument("b", false)); err == nil {
		t.Fatal("ApplyUpdate() accepted removal of attacked argument without cascade")
	}
	if _, err := f.ApplyUpdate(NewRemoveAttack("a", "b")); err != nil {
		t.Fatalf("ApplyUpdate(remove attack) error = %v", err)
	}
	if _, err := f.ApplyUpdate(NewRemoveArgument("b", false)); err != nil {
		t.Fatalf("ApplyUpdate(remove argument) error = %v", err)
	}
	if f.Seq() != 2 {
		t.Fatalf("Seq() = %d, want 2", f.Seq())
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	f := mustFramework(t, []string{"b", "a"}, []Attack{{From: "b", To: "a"}})
	snap := f.Snapshot()

	if diff := cmp.Diff([]string{"a", "b"}, snap.Args); diff != "" {
		t.Fatalf("snapshot args not sorted (-want +got):\n%s", diff)
	}

	if _, err := f.ApplyUpdate(NewAddArgument("c")); err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	if len(snap.Args) != 2 {
		t.Fatalf("earlier snapshot mutated: %v", snap.Args)
	}
}
