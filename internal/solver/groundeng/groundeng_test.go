package groundeng_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dynaf/internal/af"
	"dynaf/internal/asp"
	"dynaf/internal/solver"
	"dynaf/internal/solver/groundeng"
)

func open(t *testing.T, args []string, attacks []af.Attack) solver.Session {
	t.Helper()
	eng, err := groundeng.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fw, err := af.NewFromInstance(args, attacks)
	if err != nil {
		t.Fatalf("NewFromInstance: %v", err)
	}
	prog, err := asp.EncodeBase(fw.Snapshot(), asp.Grounded)
	if err != nil {
		t.Fatalf("EncodeBase: %v", err)
	}
	sess, err := eng.Open(context.Background(), prog)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func solveOne(t *testing.T, sess solver.Session) []string {
	t.Helper()
	models, err := sess.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("got %d models, want exactly one", len(models))
	}
	return models[0].Atoms
}

func TestGroundedChain(t *testing.T) {
	sess := open(t, []string{"a", "b", "c"}, []af.Attack{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})
	if diff := cmp.Diff([]string{"a", "c"}, solveOne(t, sess)); diff != "" {
		t.Errorf("grounded extension mismatch (-want +got):\n%s", diff)
	}
}

func TestGroundedNoAttacks(t *testing.T) {
	sess := open(t, []string{"x", "y", "z"}, nil)
	if diff := cmp.Diff([]string{"x", "y", "z"}, solveOne(t, sess)); diff != "" {
		t.Errorf("grounded extension mismatch (-want +got):\n%s", diff)
	}
}

func TestGroundedSelfAttackEmpty(t *testing.T) {
	sess := open(t, []string{"a"}, []af.Attack{{From: "a", To: "a"}})
	if got := solveOne(t, sess); len(got) != 0 {
		t.Errorf("got %v, want empty extension", got)
	}
}

func TestGroundedEvenCycleEmpty(t *testing.T) {
	sess := open(t, []string{"a", "b"}, []af.Attack{
		{From: "a", To: "b"},
		{From: "b", To: "a"},
	})
	if got := solveOne(t, sess); len(got) != 0 {
		t.Errorf("got %v, want empty extension", got)
	}
}

func TestGroundedDefenseThroughChain(t *testing.T) {
	// d attacks c, c attacks b, b attacks a: d defeats c, which
	// reinstates b, which in turn keeps a out.
	sess := open(t, []string{"a", "b", "c", "d"}, []af.Attack{
		{From: "b", To: "a"},
		{From: "c", To: "b"},
		{From: "d", To: "c"},
	})
	if diff := cmp.Diff([]string{"b", "d"}, solveOne(t, sess)); diff != "" {
		t.Errorf("grounded extension mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendShiftsFixpoint(t *testing.T) {
	sess := open(t, []string{"a", "b", "c"}, []af.Attack{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})
	if diff := cmp.Diff([]string{"a", "c"}, solveOne(t, sess)); diff != "" {
		t.Fatalf("initial extension mismatch (-want +got):\n%s", diff)
	}

	// retract the attack a -> b: b is no longer defeated, c loses its
	// defender
	frag := asp.Fragment{
		Seq: 1,
		Assignments: []asp.Assignment{
			{Fact: asp.AttackFact(af.Attack{From: "a", To: "b"}), Value: false},
		},
	}
	if err := sess.Extend(context.Background(), frag); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, solveOne(t, sess)); diff != "" {
		t.Errorf("post-retraction extension mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendAddsArgument(t *testing.T) {
	sess := open(t, []string{"a", "b"}, []af.Attack{{From: "a", To: "b"}})

	frag := asp.Fragment{
		Seq: 1,
		Assignments: []asp.Assignment{
			{Fact: asp.ArgumentFact("c"), Value: true},
			{Fact: asp.AttackFact(af.Attack{From: "c", To: "a"}), Value: true},
		},
	}
	if err := sess.Extend(context.Background(), frag); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, solveOne(t, sess)); diff != "" {
		t.Errorf("post-addition extension mismatch (-want +got):\n%s", diff)
	}
}

func TestRetractedArgumentSilencesAttacks(t *testing.T) {
	sess := open(t, []string{"a", "b"}, []af.Attack{{From: "a", To: "b"}})

	// removing the attacker leaves its outgoing attack dangling; b must
	// not stay defeated by a ghost
	frag := asp.Fragment{
		Seq: 1,
		Assignments: []asp.Assignment{
			{Fact: asp.ArgumentFact("a"), Value: false},
		},
	}
	if err := sess.Extend(context.Background(), frag); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, solveOne(t, sess)); diff != "" {
		t.Errorf("post-removal extension mismatch (-want +got):\n%s", diff)
	}
}

func TestRejectsNonDeterministicSemantics(t *testing.T) {
	eng, err := groundeng.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fw, err := af.NewFromInstance([]string{"a"}, nil)
	if err != nil {
		t.Fatalf("NewFromInstance: %v", err)
	}
	prog, err := asp.EncodeBase(fw.Snapshot(), asp.Stable)
	if err != nil {
		t.Fatalf("EncodeBase: %v", err)
	}
	_, err = eng.Open(context.Background(), prog)
	var initErr *solver.EngineInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("got %v, want *solver.EngineInitError", err)
	}
}

func TestSolveAfterCloseFails(t *testing.T) {
	sess := open(t, []string{"a"}, nil)
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := sess.Solve(context.Background()); err == nil {
		t.Fatal("Solve on closed session succeeded")
	}
}

func TestSolveHonorsCancellation(t *testing.T) {
	sess := open(t, []string{"a", "b"}, []af.Attack{{From: "a", To: "b"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sess.Solve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
