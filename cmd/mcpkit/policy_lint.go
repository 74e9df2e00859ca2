package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	policyCmd.AddCommand(newPolicyLintCmd())
}

// newPolicyLintCmd reports a policy document's non-fatal warnings without
// failing the command: a shadowed allow rule or a pointless deny is worth
// flagging but should never block a CI pipeline the way a parse failure
// does. Unlike "check", it does not compile the policy.
func newPolicyLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lint <policy.yaml>",
		Short:   "Report non-fatal findings in a policy document",
		Example: `  mcpkit policy lint policy.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			doc, err := ctx.Container.LoadPolicy(args[0])
			if err != nil {
				return fmt.Errorf("policy is invalid: %w", err)
			}

			if len(doc.Warnings) == 0 {
				fmt.Println("no findings.")
				return nil
			}
			for _, w := range doc.Warnings {
				fmt.Printf("%s\n", w.String())
			}
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
