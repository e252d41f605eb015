package generator_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dynaf/internal/af"
	"dynaf/internal/af/format"
	"dynaf/internal/generator"
)

func TestGenerateNoAttacks(t *testing.T) {
	out, err := generator.Generate(generator.Config{Size: 10, AttackProb: 0, Seed: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Initial.Args) != 10 {
		t.Errorf("got %d arguments, want 10", len(out.Initial.Args))
	}
	if len(out.Initial.Attacks) != 0 {
		t.Errorf("got %d attacks, want 0", len(out.Initial.Attacks))
	}
}

func TestGenerateFullGraph(t *testing.T) {
	out, err := generator.Generate(generator.Config{Size: 4, AttackProb: 1, Seed: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Initial.Attacks) != 16 {
		t.Errorf("got %d attacks, want 16", len(out.Initial.Attacks))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := generator.Config{Size: 8, AttackProb: 0.3, Updates: 12, Seed: 42}
	a, err := generator.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := generator.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed diverged (-first +second):\n%s", diff)
	}

	cfg.Seed = 43
	c, err := generator.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cmp.Equal(a, c) {
		t.Error("different seeds produced identical output")
	}
}

func TestGenerateUpdatesReplay(t *testing.T) {
	out, err := generator.Generate(generator.Config{
		Size: 6, AttackProb: 0.4, Updates: 20, UpdateEdgeProb: 0.3, Seed: 7,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Batches) != 20 || len(out.Intermediates) != 20 {
		t.Fatalf("got %d batches, %d intermediates, want 20 each",
			len(out.Batches), len(out.Intermediates))
	}

	// replaying the stream against the initial instance must hit every
	// intermediate snapshot
	fw, err := af.NewFromInstance(out.Initial.Args, out.Initial.Attacks)
	if err != nil {
		t.Fatalf("NewFromInstance: %v", err)
	}
	for i, batch := range out.Batches {
		for _, op := range batch {
			if _, err := fw.ApplyUpdate(op); err != nil {
				t.Fatalf("batch %d rejected: %v", i, err)
			}
		}
		got := fw.Snapshot()
		want := out.Intermediates[i]
		if diff := cmp.Diff(want.Args, got.Args); diff != "" {
			t.Fatalf("batch %d argument mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(want.Attacks, got.Attacks); diff != "" {
			t.Fatalf("batch %d attack mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestWriteFilesRoundTrip(t *testing.T) {
	out, err := generator.Generate(generator.Config{
		Size: 5, AttackProb: 0.5, Updates: 8, UpdateEdgeProb: 0.4, Seed: 11,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, kind := range format.Kinds() {
		instPath, updPath, err := generator.WriteFiles(out, t.TempDir(), "gen", kind, false)
		if err != nil {
			t.Fatalf("%s: WriteFiles: %v", kind, err)
		}

		fw, _, err := format.ReadInstanceFile(instPath, kind)
		if err != nil {
			t.Fatalf("%s: ReadInstanceFile: %v", kind, err)
		}
		snap := fw.Snapshot()
		if diff := cmp.Diff(out.Initial.Args, snap.Args); diff != "" {
			t.Errorf("%s: argument mismatch (-want +got):\n%s", kind, diff)
		}
		if diff := cmp.Diff(out.Initial.Attacks, snap.Attacks); diff != "" {
			t.Errorf("%s: attack mismatch (-want +got):\n%s", kind, diff)
		}

		batches, err := format.ReadUpdatesFile(updPath, kind)
		if err != nil {
			t.Fatalf("%s: ReadUpdatesFile: %v", kind, err)
		}
		if diff := cmp.Diff(out.Batches, batches); diff != "" {
			t.Errorf("%s: update stream mismatch (-want +got):\n%s", kind, diff)
		}
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	cases := []generator.Config{
		{Size: -1},
		{Size: 1, AttackProb: 1.5},
		{Size: 1, UpdateEdgeProb: -0.1},
		{Size: 1, Updates: -3},
	}
	for _, cfg := range cases {
		if _, err := generator.Generate(cfg); err == nil {
			t.Errorf("config %+v accepted", cfg)
		}
	}
}
