package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "atelier",
		Short: "Atelier freelance collaboration backend",
		Long: `Atelier is the backend for a freelance collaboration platform:
projects and tasks, real-time collaboration rooms, task completion
tracking and weighted collaborator ratings.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newMigrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
