package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hearthd/internal/worker"
)

// newWorkerCmd is the isolated inference loop. The daemon re-execs its own
// binary with this subcommand: tasks arrive on stdin, results leave on
// stdout, logs go to stderr so the protocol stream stays clean. Not meant
// to be invoked by hand, hence hidden.
func newWorkerCmd() *cobra.Command {
	var (
		modelPath   string
		grammarsDir string
		ctxSize     int
		threads     int
	)

	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run the inference worker loop (spawned by serve)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(envOr("HEARTHD_LOG_LEVEL", "info"))
			if err != nil {
				lvl = zerolog.InfoLevel
			}
			log := zerolog.New(os.Stderr).Level(lvl).With().
				Timestamp().Str("component", "worker").Int("pid", os.Getpid()).Logger()

			r := worker.New(worker.NewRuntime(ctxSize, threads), worker.Config{
				DefaultModelPath: modelPath,
				GrammarsDir:      grammarsDir,
				Logger:           log,
			})
			return r.Run(os.Stdin, os.Stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelPath, "model-path", "", "Default model weights file")
	f.StringVar(&grammarsDir, "grammars-dir", "", "Directory holding .gbnf grammar files")
	f.IntVar(&ctxSize, "ctx-size", 2048, "Model context window size")
	f.IntVar(&threads, "threads", 4, "Inference thread count")

	return cmd
}
