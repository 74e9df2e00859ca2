package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	bundleCmd.AddCommand(newBundlePruneCmd())
}

func newBundlePruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove older cached bundle generations",
		Example: `  # Keep the 3 newest semver generations of each repository
  mcpkit bundle prune --keep 3`,
		Args: cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			removed, err := ctx.Container.Store().Prune(keep)
			if err != nil {
				return fmt.Errorf("failed to prune cache: %w", err)
			}
			for _, e := range removed {
				fmt.Printf("removed %s/%s:%s\n", e.Registry, e.Repository, e.Tag)
			}
			fmt.Printf("pruned %d generation(s), kept %d newest per repository.\n", len(removed), keep)
			return nil
		}),
	}

	cmd.Flags().IntVar(&keep, "keep", 5, "number of newest generations to keep per repository")
	addCommonFlags(cmd)
	return cmd
}
