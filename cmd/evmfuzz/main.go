package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "evmfuzz",
	Short:         "Coverage-guided fuzzer for contract call sequences",
	Long:          `evmfuzz mutates call sequences against in-process contracts and replays accepted inputs to record which calldata bytes feed keccak hashes.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
