package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultDataDir is where the daemon keeps its own artifacts (context db,
// voice cache) unless configured otherwise.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hearth"
	}
	return filepath.Join(home, ".hearth")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hearthd",
		Short:         "Local-first writing assistant daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newWorkerCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hearthd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hearthd %s\n", version)
		},
	}
}
