package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
)

func init() {
	policyCmd.AddCommand(newPolicyExplainCmd())
}

// newPolicyExplainCmd compiles a policy and prints the concrete decisions
// it produces, so an operator can answer "what does this policy actually
// grant" without mentally re-running glob and CIDR matching themselves.
func newPolicyExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "explain <policy.yaml>",
		Short:   "Show the compiled decisions a policy document produces",
		Example: `  mcpkit policy explain policy.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			doc, err := ctx.Container.LoadPolicy(args[0])
			if err != nil {
				return fmt.Errorf("policy is invalid: %w", err)
			}

			c, err := compiled.Compile(doc)
			if err != nil {
				return fmt.Errorf("policy failed to compile: %w", err)
			}

			limits := c.ResourceLimits()
			fmt.Printf("resources: cpu=%dm memory=%dB execution=%dms fuel=%d\n",
				limits.CPUMillicores, limits.MemoryBytes, limits.ExecutionMS, limits.Fuel)

			fmt.Println("storage allow prefixes:")
			for _, p := range c.StorageAllowPrefixes() {
				fmt.Printf("  %s\n", p)
			}

			mcp, ok := doc.MCP()
			if !ok || mcp.Tools == nil {
				return nil
			}
			fmt.Println("tools:")
			now := time.Now()
			for _, rule := range mcp.Tools.Allow {
				allowed, limiter := c.AllowedTool(rule.Name)
				remaining := "unlimited"
				if limiter != nil && rule.MaxCallsPerMinute != nil && *rule.MaxCallsPerMinute > 0 {
					remaining = fmt.Sprintf("%d/min remaining", limiter.Remaining(now))
				}
				fmt.Printf("  %s: allowed=%t %s\n", rule.Name, allowed, remaining)
			}
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}
