package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "worldevents",
		Short:   "Asynchronous world mutation pipeline",
		Long:    `worldevents applies player-, npc- and system-authored world mutations from the event queue, exactly once per logical event.`,
		Version: version,
	}

	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newEmitCmd())

	return rootCmd
}
