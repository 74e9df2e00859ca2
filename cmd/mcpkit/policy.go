package main

import "github.com/spf13/cobra"

// policyCmd groups policy document operations: validating, linting, and
// explaining what a compiled policy actually grants.
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Validate and inspect policy documents",
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
