package main

import "github.com/spf13/cobra"

// bundleCmd groups OCI bundle distribution operations: push, pull, list,
// and prune against the local content-addressed cache.
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Push, pull, and manage WASM module bundles",
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}
