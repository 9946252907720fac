package cmd

import (
	"github.com/nsyszr/quakedb/pkg/cmd/server"
	"github.com/spf13/cobra"
)

// serveWebCmd represents the serve web command
var serveWebCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the earthquake web pages and API",
	Run:   server.RunServeWeb(c),
}

func init() {
	serveCmd.AddCommand(serveWebCmd)
}
