package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	bundleCmd.AddCommand(newBundlePushCmd())
}

func newBundlePushCmd() *cobra.Command {
	var wasmPath string
	var policyPath string

	cmd := &cobra.Command{
		Use:   "push <reference>",
		Short: "Push a WASM module and its policy to a registry",
		Example: `  mcpkit bundle push ghcr.io/example/weather-server:1.0.0 \
    --wasm server.wasm --policy policy.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if wasmPath == "" || policyPath == "" {
				return fmt.Errorf("both --wasm and --policy flags are required")
			}

			wasmBytes, err := os.ReadFile(filepath.Clean(wasmPath))
			if err != nil {
				return fmt.Errorf("read wasm module: %w", err)
			}
			configBytes, err := os.ReadFile(filepath.Clean(policyPath))
			if err != nil {
				return fmt.Errorf("read policy document: %w", err)
			}

			// Reject an unparsable policy before it ever reaches a registry.
			if _, err := ctx.Container.LoadPolicy(policyPath); err != nil {
				return fmt.Errorf("refusing to push invalid policy: %w", err)
			}

			desc, err := ctx.Container.Push(ctx.Context, args[0], configBytes, wasmBytes, nil)
			if err != nil {
				return fmt.Errorf("failed to push bundle: %w", err)
			}

			fmt.Printf("pushed %s (manifest digest %s)\n", args[0], desc.Digest)
			return nil
		}),
	}

	cmd.Flags().StringVar(&wasmPath, "wasm", "", "path to the WASM module binary")
	cmd.Flags().StringVar(&policyPath, "policy", "", "path to the policy document")
	addCommonFlags(cmd)
	return cmd
}
