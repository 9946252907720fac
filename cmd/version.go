package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display this binary's version, build time and git hash",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", c.BuildVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "Git Hash:   %s\n", c.BuildHash)
		fmt.Fprintf(cmd.OutOrStdout(), "Build Time: %s\n", c.BuildTime)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
