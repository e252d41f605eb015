package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dynaf/internal/af/format"
	"dynaf/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dynaf",
	Short: "dynaf - incremental answer-set solving for dynamic argumentation frameworks",
	Long: `dynaf solves acceptance problems over abstract argumentation frameworks
that change over time.

A framework is encoded as an answer-set program, handed to a solving
engine, and kept in sync with structural updates incrementally: the
engine session survives across updates, and every sequence point is
solved against the accumulated program instead of a rebuilt one.

Supported semantics: admissible, conflict-free, complete, grounded,
stable. Instances load from apx or tgf files; update streams from the
paired apxm/tgfm files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "console" {
			zcfg = zap.NewDevelopmentConfig()
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
		// answers go to stdout, logs stay on stderr
		zcfg.OutputPaths = []string{"stderr"}

		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// problemsCmd prints the supported problem codes
var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the supported problem codes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("[%s]\n", strings.Join(SupportedTasks(), ","))
	},
}

// formatsCmd prints the supported instance formats
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported instance formats",
	Run: func(cmd *cobra.Command, args []string) {
		names := make([]string, 0, 2)
		for _, k := range format.Kinds() {
			names = append(names, k.String())
		}
		fmt.Printf("[%s]\n", strings.Join(names, ","))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "dynaf.yaml", "Configuration file")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(formatsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
