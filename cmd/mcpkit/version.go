package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mcpkit",
	Run: func(_ *cobra.Command, _ []string) {
		info := build.Get()
		fmt.Printf("mcpkit version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
