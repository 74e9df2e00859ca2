package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	bundleCmd.AddCommand(newBundleListCmd())
}

func newBundleListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List bundles in the local cache",
		Example: `  mcpkit bundle list`,
		Args:    cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			entries, err := ctx.Container.Store().Index()
			if err != nil {
				return fmt.Errorf("failed to list cached bundles: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("no bundles cached.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "REGISTRY\tREPOSITORY\tTAG")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Registry, e.Repository, e.Tag)
			}
			return w.Flush()
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
