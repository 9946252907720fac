package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nsyszr/quakedb/config"
	"github.com/nsyszr/quakedb/pkg/cmd/server"
	"github.com/nsyszr/quakedb/pkg/quake"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type ImportHandler struct {
	c *config.Config
}

func newImportHandler(c *config.Config) *ImportHandler {
	return &ImportHandler{c: c}
}

// ImportCSV loads a CSV file into the configured store and prints the report
func (h *ImportHandler) ImportCSV(cmd *cobra.Command, args []string) {
	path := getArg(cmd, args, 0)
	if path == "" {
		os.Exit(2)
	}

	server.SetupLogging(h.c)
	if err := h.c.Validate(); err != nil {
		log.Error("invalid configuration: ", err)
		os.Exit(2)
	}
	if err := checkImportTarget(h.c); err != nil {
		log.Error(err)
		os.Exit(2)
	}

	store, err := server.OpenStore(h.c)
	if err != nil {
		log.Error("failed to open store: ", err)
		os.Exit(1)
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open CSV file: ", err)
		os.Exit(1)
	}
	defer f.Close()

	report, err := quake.NewService(store, nil, nil).Import(context.Background(), f)
	if err != nil {
		log.Error("import failed: ", err)
		os.Exit(1)
	}

	printReport(cmd.OutOrStdout(), report)
}

// checkImportTarget refuses the memory store, its rows are gone when the
// command exits
func checkImportTarget(c *config.Config) error {
	if c.UseMemoryStore() {
		return errors.New("import needs a PostgreSQL DATABASE_URL, the memory store is discarded on exit")
	}
	return nil
}

func printReport(w io.Writer, r *quake.ImportReport) {
	fmt.Fprintf(w, "%d entries imported.\n", r.Imported)
	for _, msg := range r.Errors {
		fmt.Fprintln(w, msg)
	}
}
