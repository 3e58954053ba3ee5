package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	gitRelease    = "dev"
	gitCommit     = "unknown"
	gitCommitDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("interleave %s\n", gitRelease)
		fmt.Printf("  Go:     %s\n", runtime.Version())
		fmt.Printf("  Commit: %s\n", gitCommit)
		fmt.Printf("  Date:   %s\n", gitCommitDate)
	},
}
