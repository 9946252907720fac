package cmd

import (
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import earthquakes from a CSV file into the configured database",
	Run:   cmdHandler.Import.ImportCSV,
}

func init() {
	RootCmd.AddCommand(importCmd)
}
