// Package generator produces random argumentation frameworks together
// with update streams, for benchmarking and for exercising the dynamic
// pipeline. Output is reproducible from the seed.
package generator

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"dynaf/internal/af"
	"dynaf/internal/af/format"
)

// Config controls generation.
type Config struct {
	// Size is the number of initial arguments.
	Size int
	// AttackProb is the probability that any ordered pair of initial
	// arguments becomes an attack. Self-attacks included.
	AttackProb float64
	// Updates is the number of update lines to generate.
	Updates int
	// UpdateEdgeProb is the probability, when an update adds an
	// argument, of each possible attack touching it. Also weighs
	// attack-only updates. Defaults to AttackProb when zero.
	UpdateEdgeProb float64
	// Seed feeds the PRNG. The same config always yields the same
	// output.
	Seed int64
}

func (c Config) validate() error {
	if c.Size < 0 {
		return fmt.Errorf("generator: size %d is negative", c.Size)
	}
	if c.AttackProb < 0 || c.AttackProb > 1 {
		return fmt.Errorf("generator: attack probability %v outside [0,1]", c.AttackProb)
	}
	if c.UpdateEdgeProb < 0 || c.UpdateEdgeProb > 1 {
		return fmt.Errorf("generator: update edge probability %v outside [0,1]", c.UpdateEdgeProb)
	}
	if c.Updates < 0 {
		return fmt.Errorf("generator: update count %d is negative", c.Updates)
	}
	return nil
}

// Output is a generated instance plus its update stream. Intermediates
// holds the framework state after each update batch, in order.
type Output struct {
	Initial       af.Snapshot
	Batches       [][]af.UpdateOp
	Intermediates []af.Snapshot
}

// Generate builds a random framework and a stream of update batches
// that are valid when applied in order.
func Generate(cfg Config) (*Output, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	edgeProb := cfg.UpdateEdgeProb
	if edgeProb == 0 {
		edgeProb = cfg.AttackProb
	}

	args := make([]string, cfg.Size)
	for i := range args {
		args[i] = fmt.Sprintf("a%d", i+1)
	}
	var attacks []af.Attack
	for _, from := range args {
		for _, to := range args {
			if rng.Float64() < cfg.AttackProb {
				attacks = append(attacks, af.Attack{From: from, To: to})
			}
		}
	}

	fw, err := af.NewFromInstance(args, attacks)
	if err != nil {
		return nil, err
	}
	out := &Output{Initial: fw.Snapshot()}

	nextID := cfg.Size + 1
	for i := 0; i < cfg.Updates; i++ {
		batch := nextBatch(rng, fw, edgeProb, &nextID)
		for _, op := range batch {
			if _, err := fw.ApplyUpdate(op); err != nil {
				return nil, fmt.Errorf("generator produced invalid update: %w", err)
			}
		}
		out.Batches = append(out.Batches, batch)
		out.Intermediates = append(out.Intermediates, fw.Snapshot())
	}
	return out, nil
}

// nextBatch picks one update line. An argument addition carries its
// attacks on the same line, everything else is a single op.
func nextBatch(rng *rand.Rand, fw *af.Framework, edgeProb float64, nextID *int) []af.UpdateOp {
	snap := fw.Snapshot()

	type choice int
	const (
		addArg choice = iota
		removeArg
		addAtt
		removeAtt
	)
	choices := []choice{addArg}
	if len(snap.Args) > 0 {
		choices = append(choices, removeArg)
		if free := freePairs(snap); len(free) > 0 {
			choices = append(choices, addAtt)
		}
	}
	if len(snap.Attacks) > 0 {
		choices = append(choices, removeAtt)
	}

	switch choices[rng.Intn(len(choices))] {
	case addArg:
		id := fmt.Sprintf("a%d", *nextID)
		*nextID++
		ops := []af.UpdateOp{af.NewAddArgument(id)}
		for _, other := range snap.Args {
			if rng.Float64() < edgeProb {
				ops = append(ops, af.NewAddAttack(id, other))
			}
			if rng.Float64() < edgeProb {
				ops = append(ops, af.NewAddAttack(other, id))
			}
		}
		if rng.Float64() < edgeProb {
			ops = append(ops, af.NewAddAttack(id, id))
		}
		return ops
	case removeArg:
		id := snap.Args[rng.Intn(len(snap.Args))]
		return []af.UpdateOp{af.NewRemoveArgument(id, true)}
	case addAtt:
		free := freePairs(snap)
		att := free[rng.Intn(len(free))]
		return []af.UpdateOp{af.NewAddAttack(att.From, att.To)}
	default:
		att := snap.Attacks[rng.Intn(len(snap.Attacks))]
		return []af.UpdateOp{af.NewRemoveAttack(att.From, att.To)}
	}
}

func freePairs(snap af.Snapshot) []af.Attack {
	present := make(map[af.Attack]struct{}, len(snap.Attacks))
	for _, att := range snap.Attacks {
		present[att] = struct{}{}
	}
	var free []af.Attack
	for _, from := range snap.Args {
		for _, to := range snap.Args {
			att := af.Attack{From: from, To: to}
			if _, ok := present[att]; !ok {
				free = append(free, att)
			}
		}
	}
	return free
}

// WriteFiles writes the paired instance and updates files under dir,
// named <name>-initial.<ext> and <name>-updates.<ext>m. With
// intermediates enabled it additionally writes <name>-step<i>.<ext>
// snapshots after each update line. Returns the two primary paths.
func WriteFiles(out *Output, dir, name string, kind format.Kind, intermediates bool) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	base := filepath.Join(dir, name)

	instPath := base + "-initial." + kind.InstanceExt()
	var b strings.Builder
	if err := format.WriteInstance(&b, out.Initial, kind); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(instPath, []byte(b.String()), 0o644); err != nil {
		return "", "", err
	}

	updPath := base + "-updates." + kind.UpdateExt()
	b.Reset()
	for _, batch := range out.Batches {
		line, err := format.FormatUpdateLine(batch, kind)
		if err != nil {
			return "", "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(updPath, []byte(b.String()), 0o644); err != nil {
		return "", "", err
	}

	if intermediates {
		for i, snap := range out.Intermediates {
			b.Reset()
			if err := format.WriteInstance(&b, snap, kind); err != nil {
				return "", "", err
			}
			path := fmt.Sprintf("%s-step%d.%s", base, i+1, kind.InstanceExt())
			if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
				return "", "", err
			}
		}
	}
	return instPath, updPath, nil
}
