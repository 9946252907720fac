package cmd

import (
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the record events published on NATS",
	Run:   cmdHandler.Watch.WatchEvents,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}
