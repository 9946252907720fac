package cli

import (
	"fmt"
	"os"
	"time"

	colorable "github.com/mattn/go-colorable"
	"github.com/nsyszr/quakedb/config"
	"github.com/nsyszr/quakedb/pkg/storage/postgres"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type MigrateHandler struct {
	c *config.Config
}

func newMigrateHandler(c *config.Config) *MigrateHandler {
	return &MigrateHandler{c: c}
}

func getArg(cmd *cobra.Command, args []string, position int) (arg string) {
	if len(args) <= position {
		fmt.Println(cmd.UsageString())
		return
	}
	arg = args[position]

	if arg == "" {
		fmt.Println(cmd.UsageString())
		return
	}
	return
}

func (h *MigrateHandler) MigrateSQL(cmd *cobra.Command, args []string) {
	url := getArg(cmd, args, 0)
	if url == "" {
		os.Exit(2) // Return missing keyword or command
	}

	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})
	log.SetOutput(colorable.NewColorableStdout())

	log.Info("Applying SQL migration...")

	timeout := h.c.DBConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Connect to PostgreSQL database and check the connection
	db, err := postgres.Connect(url, timeout, 1)
	if err != nil {
		log.Errorf("An error occurred while connecting to SQL: %s", err)
		os.Exit(1)
	}
	defer db.Close()

	n, err := postgres.Migrate(db)
	if err != nil {
		log.Errorf("An error occurred while running the migrations: %s", err)
		os.Exit(1)
	}
	log.Infof("Migration successful! Applied a total of %d migrations.", n)
}
