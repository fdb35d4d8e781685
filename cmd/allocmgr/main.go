package main

import (
	"os"

	"github.com/spf13/cobra"

	"allocmgr/internal/interfaces/cli/migrate"
	"allocmgr/internal/interfaces/cli/prune"
	"allocmgr/internal/interfaces/cli/server"
	"allocmgr/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "allocmgr",
		Short: "Research storage allocation manager",
		Long:  `Allocmgr manages the lifecycle of research storage allocations: provisioning of directory groups and filesystem filesets, membership synchronization, expiry notifications and lifecycle transitions.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		prune.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
