package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	bundleCmd.AddCommand(newBundlePullCmd())
}

func newBundlePullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <reference>",
		Short: "Pull a bundle from a registry into the local cache",
		Example: `  mcpkit bundle pull ghcr.io/example/weather-server:1.0.0`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			_, meta, err := ctx.Container.Pull(ctx.Context, args[0])
			if err != nil {
				return fmt.Errorf("failed to pull bundle: %w", err)
			}
			fmt.Printf("pulled %s (digest %s)\n", args[0], meta.Digest)
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
