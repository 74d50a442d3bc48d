package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/drugqa/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drugqa %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
