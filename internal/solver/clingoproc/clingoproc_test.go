package clingoproc

import (
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dynaf/internal/af"
	"dynaf/internal/asp"
	"dynaf/internal/solver"
)

func TestNewReportsMissingBinary(t *testing.T) {
	_, err := New("definitely-not-a-clingo-binary-3f9a")
	var initErr *solver.EngineInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("New() error = %v, want *EngineInitError", err)
	}
}

func TestParseModels(t *testing.T) {
	out := []byte(`{
		"Result": "SATISFIABLE",
		"Call": [{"Witnesses": [
			{"Value": ["a", "c"]},
			{"Value": ["\"Arg-1\""]}
		]}]
	}`)
	models, err := parseModels(out)
	if err != nil {
		t.Fatalf("parseModels() error = %v", err)
	}
	want := []solver.Model{
		{Atoms: []string{"a", "c"}},
		{Atoms: []string{"Arg-1"}},
	}
	if diff := cmp.Diff(want, models); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModelsUnsatisfiable(t *testing.T) {
	models, err := parseModels([]byte(`{"Result": "UNSATISFIABLE", "Call": [{}]}`))
	if err != nil {
		t.Fatalf("parseModels() error = %v", err)
	}
	if len(models) != 0 {
		t.Fatalf("parseModels() = %v, want no models", models)
	}
}

func TestParseModelsGarbage(t *testing.T) {
	_, err := parseModels([]byte("grounding failed"))
	var encErr *solver.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("parseModels() error = %v, want *EncodingError", err)
	}
}

func TestSessionRenderReflectsRetractions(t *testing.T) {
	fw, err := af.NewFromInstance([]string{"a", "b"}, []af.Attack{{From: "a", To: "b"}})
	if err != nil {
		t.Fatalf("NewFromInstance() error = %v", err)
	}
	prog, err := asp.EncodeBase(fw.Snapshot(), asp.Stable)
	if err != nil {
		t.Fatalf("EncodeBase() error = %v", err)
	}

	s := &session{
		engine: &Engine{},
		rules:  prog.Rules,
		show:   prog.Show,
		truth:  map[string]bool{},
	}
	for _, f := range prog.Facts {
		s.truth[f.Symbol()] = true
	}

	d, err := fw.ApplyUpdate(af.NewRemoveAttack("a", "b"))
	if err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	if err := s.Extend(context.Background(), asp.EncodeDelta(d)); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	rendered := s.render()
	if strings.Contains(rendered, "attack(a,b).") {
		t.Fatalf("retracted attack still rendered:\n%s", rendered)
	}
	if !strings.Contains(rendered, "argument(a).") || !strings.Contains(rendered, "argument(b).") {
		t.Fatalf("arguments missing from rendered program:\n%s", rendered)
	}

	// rendered program must match a fresh base encoding of the updated
	// framework, fact for fact
	fresh, err := asp.EncodeBase(fw.Snapshot(), asp.Stable)
	if err != nil {
		t.Fatalf("EncodeBase() error = %v", err)
	}
	var freshSyms []string
	for _, f := range fresh.Facts {
		freshSyms = append(freshSyms, f.Symbol())
	}
	sort.Strings(freshSyms)
	for _, sym := range freshSyms {
		if !strings.Contains(rendered, sym+".") {
			t.Fatalf("rendered program missing %q", sym)
		}
	}
}

// Integration coverage against a real clingo binary; skipped when the
// engine is not installed.
func TestSolveAgainstRealClingo(t *testing.T) {
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("clingo binary not installed")
	}

	eng, err := New(DefaultBinary)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	fw, err := af.NewFromInstance([]string{"a", "b", "c"}, []af.Attack{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})
	if err != nil {
		t.Fatalf("NewFromInstance() error = %v", err)
	}
	prog, err := asp.EncodeBase(fw.Snapshot(), asp.Stable)
	if err != nil {
		t.Fatalf("EncodeBase() error = %v", err)
	}

	sess, err := eng.Open(context.Background(), prog)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close()

	models, err := sess.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("got %d stable models, want 1", len(models))
	}
	got := append([]string(nil), models[0].Atoms...)
	sort.Strings(got)
	if diff := cmp.Diff([]string{"a", "c"}, got); diff != "" {
		t.Fatalf("stable model mismatch (-want +got):\n%s", diff)
	}
}

// Enumerates the guess/check programs against a real clingo binary and
// checks the containment chain across semantics: every stable extension
// is complete, every complete extension is admissible, every admissible
// extension is conflict-free. Skipped when the engine is not installed.
func TestSemanticsContainmentAgainstRealClingo(t *testing.T) {
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("clingo binary not installed")
	}
	eng, err := New(DefaultBinary)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	enumerate := func(t *testing.T, fw *af.Framework, sem asp.Semantics) [][]string {
		t.Helper()
		prog, err := asp.EncodeBase(fw.Snapshot(), sem)
		if err != nil {
			t.Fatalf("EncodeBase(%s) error = %v", sem, err)
		}
		sess, err := eng.Open(context.Background(), prog)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", sem, err)
		}
		defer sess.Close()
		models, err := sess.Solve(context.Background())
		if err != nil {
			t.Fatalf("Solve(%s) error = %v", sem, err)
		}
		exts := make([][]string, 0, len(models))
		for _, m := range models {
			ext := append([]string(nil), m.Atoms...)
			sort.Strings(ext)
			exts = append(exts, ext)
		}
		sort.Slice(exts, func(i, j int) bool {
			if len(exts[i]) != len(exts[j]) {
				return len(exts[i]) < len(exts[j])
			}
			return strings.Join(exts[i], ",") < strings.Join(exts[j], ",")
		})
		return exts
	}
	contains := func(exts [][]string, ext []string) bool {
		for _, e := range exts {
			if cmp.Equal(e, ext) {
				return true
			}
		}
		return false
	}
	requireChain := func(t *testing.T, fw *af.Framework) {
		t.Helper()
		chain := []asp.Semantics{asp.Stable, asp.Complete, asp.Admissible, asp.ConflictFree}
		for i := 0; i < len(chain)-1; i++ {
			inner := enumerate(t, fw, chain[i])
			outer := enumerate(t, fw, chain[i+1])
			for _, ext := range inner {
				if !contains(outer, ext) {
					t.Errorf("%s extension %v is not %s", chain[i], ext, chain[i+1])
				}
			}
		}
	}

	t.Run("chain", func(t *testing.T) {
		fw, err := af.NewFromInstance([]string{"a", "b", "c"}, []af.Attack{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
		})
		if err != nil {
			t.Fatalf("NewFromInstance() error = %v", err)
		}
		if diff := cmp.Diff([][]string{{"a", "c"}}, enumerate(t, fw, asp.Complete)); diff != "" {
			t.Errorf("complete extensions mismatch (-want +got):\n%s", diff)
		}
		requireChain(t, fw)
	})

	t.Run("mutual attack", func(t *testing.T) {
		fw, err := af.NewFromInstance([]string{"a", "b", "c"}, []af.Attack{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
			{From: "b", To: "c"},
		})
		if err != nil {
			t.Fatalf("NewFromInstance() error = %v", err)
		}
		if diff := cmp.Diff([][]string{nil, {"b"}, {"a", "c"}}, enumerate(t, fw, asp.Complete)); diff != "" {
			t.Errorf("complete extensions mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([][]string{nil, {"a"}, {"b"}, {"a", "c"}}, enumerate(t, fw, asp.Admissible)); diff != "" {
			t.Errorf("admissible extensions mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([][]string{nil, {"a"}, {"b"}, {"c"}, {"a", "c"}}, enumerate(t, fw, asp.ConflictFree)); diff != "" {
			t.Errorf("conflict-free extensions mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([][]string{{"b"}, {"a", "c"}}, enumerate(t, fw, asp.Stable)); diff != "" {
			t.Errorf("stable extensions mismatch (-want +got):\n%s", diff)
		}
		requireChain(t, fw)
	})

	t.Run("self attacker", func(t *testing.T) {
		fw, err := af.NewFromInstance([]string{"a", "b"}, []af.Attack{{From: "a", To: "a"}})
		if err != nil {
			t.Fatalf("NewFromInstance() error = %v", err)
		}
		if got := enumerate(t, fw, asp.Stable); len(got) != 0 {
			t.Errorf("got stable extensions %v, want none", got)
		}
		if diff := cmp.Diff([][]string{{"b"}}, enumerate(t, fw, asp.Complete)); diff != "" {
			t.Errorf("complete extensions mismatch (-want +got):\n%s", diff)
		}
		requireChain(t, fw)
	})
}
