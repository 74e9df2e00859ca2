package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
)

func init() {
	policyCmd.AddCommand(newPolicyCheckCmd())
}

func newPolicyCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check <policy.yaml>",
		Short:   "Validate a policy document and report its warnings",
		Example: `  mcpkit policy check policy.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			doc, err := ctx.Container.LoadPolicy(args[0])
			if err != nil {
				return fmt.Errorf("policy is invalid: %w", err)
			}

			if _, err := compiled.Compile(doc); err != nil {
				return fmt.Errorf("policy failed to compile: %w", err)
			}

			fmt.Printf("policy %q is valid (version %s)\n", args[0], doc.Version)
			for _, w := range doc.Warnings {
				fmt.Printf("warning: %s: %s\n", w.Path, w.Message)
			}
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
