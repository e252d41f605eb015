package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dynaf/internal/af"
	"dynaf/internal/af/format"
	"dynaf/internal/asp"
	"dynaf/internal/results"
	"dynaf/internal/session"
	"dynaf/internal/solver"
	"dynaf/internal/solver/clingoproc"
	"dynaf/internal/solver/groundeng"
)

var (
	solveTask    string
	solveFile    string
	solveUpdates string
	solveFormat  string
	solveTimeout time.Duration
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve an acceptance problem over an instance file",
	Long: `Solves the given problem code against an instance file.

Static tasks solve the instance once. Dynamic tasks (suffix -d) also
read the paired updates file and re-solve after every update line,
keeping the engine session alive across updates.

Examples:
  dynaf solve --task ee-st --file af.apx
  dynaf solve --task se-gr-d --file af.tgf --updates af.tgfm
  dynaf solve --task ce-co --file af --fo apx`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveTask, "task", "", "Problem code, e.g. ee-co or se-st-d")
	solveCmd.Flags().StringVarP(&solveFile, "file", "f", "", "Instance file (apx or tgf)")
	solveCmd.Flags().StringVarP(&solveUpdates, "updates", "m", "", "Updates file (apxm or tgfm) for dynamic tasks")
	solveCmd.Flags().StringVar(&solveFormat, "fo", "", "Instance format, detected from content when omitted")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "Per-solve budget, overrides the configured one")
	_ = solveCmd.MarkFlagRequired("task")
	_ = solveCmd.MarkFlagRequired("file")
}

func runSolve(cmd *cobra.Command, args []string) error {
	task, err := ParseTask(solveTask)
	if err != nil {
		return err
	}

	var kind format.Kind
	if solveFormat != "" {
		if kind, err = format.ParseKind(solveFormat); err != nil {
			return err
		}
	}
	fw, kind, err := format.ReadInstanceFile(solveFile, kind)
	if err != nil {
		return err
	}

	var batches [][]af.UpdateOp
	switch {
	case task.Dynamic && solveUpdates == "":
		return fmt.Errorf("task %s needs an updates file", task)
	case !task.Dynamic && solveUpdates != "":
		return fmt.Errorf("task %s is static; drop --updates or use %s-d", task, task)
	case task.Dynamic:
		if batches, err = format.ReadUpdatesFile(solveUpdates, kind); err != nil {
			return err
		}
	}

	engine, err := newEngine(task.Semantics)
	if err != nil {
		return err
	}
	timeout := solveTimeout
	if timeout == 0 {
		timeout = cfg.GetSolveTimeout()
	}
	driver := solver.NewDriver(engine,
		solver.WithTimeout(timeout),
		solver.WithLogger(logger))

	opts := []session.Option{session.WithLogger(logger)}
	if cfg.History.Enabled {
		history, err := results.OpenHistory(cfg.History.DatabasePath)
		if err != nil {
			return err
		}
		defer history.Close()
		opts = append(opts, session.WithHistory(history))
	}
	controller := session.New(task.Semantics, fw, driver, results.NewStore(), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := controller.Run(ctx, batches)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 && task.Mode == ModeEnumerate {
			fmt.Println()
		}
		printEntry(task, entry)
	}
	return nil
}

// newEngine picks the engine for the semantics: the in-process fixpoint
// engine for grounded, the external solver for everything else.
func newEngine(sem asp.Semantics) (solver.Engine, error) {
	if sem.Deterministic() {
		return groundeng.New(groundeng.WithLogger(logger))
	}
	return clingoproc.New(cfg.Solver.ClingoBinary, clingoproc.WithLogger(logger))
}

func printEntry(task Task, entry results.Entry) {
	if entry.Status == results.StatusInconclusive {
		fmt.Println("UNKNOWN")
		return
	}
	switch task.Mode {
	case ModeCount:
		fmt.Println(len(entry.Extensions))
	case ModeSome:
		if len(entry.Extensions) == 0 {
			fmt.Println("NO")
			return
		}
		fmt.Println(entry.Extensions[0])
	case ModeEnumerate:
		for _, ext := range entry.Extensions {
			fmt.Println(ext)
		}
	}
	if entry.Collapsed {
		logger.Warn("extension set collapsed",
			zap.Stringer("semantics", entry.Semantics),
			zap.Uint64("seq", entry.Seq))
	}
}
