package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ripple/internal/version"
)

var versionShowFull bool

func init() {
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "include git commit and build date when recorded")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ripple build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ripple %s\n", version.Version)
		if versionShowFull {
			if version.GitCommit != "" {
				fmt.Fprintf(out, "commit: %s\n", version.GitCommit)
			}
			if version.BuildDate != "" {
				fmt.Fprintf(out, "built:  %s\n", version.BuildDate)
			}
		}
		return nil
	},
}
