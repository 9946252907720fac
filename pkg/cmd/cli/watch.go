package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nsyszr/quakedb/config"
	"github.com/nsyszr/quakedb/pkg/events"
	"github.com/nsyszr/quakedb/pkg/events/natsio"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type WatchHandler struct {
	c *config.Config
}

func newWatchHandler(c *config.Config) *WatchHandler {
	return &WatchHandler{c: c}
}

// WatchEvents prints every record event until interrupted
func (h *WatchHandler) WatchEvents(cmd *cobra.Command, args []string) {
	if !h.c.EventsEnabled() {
		log.Error("NATS_URL is not set, record events are disabled")
		os.Exit(2)
	}

	nc, err := nats.Connect(h.c.NATSServerURL)
	if err != nil {
		log.Error("failed to connect to NATS: ", err)
		os.Exit(1)
	}
	defer nc.Close()

	out := cmd.OutOrStdout()
	if _, err := nc.Subscribe(natsio.SubjectAll, func(msg *nats.Msg) {
		printEvent(out, msg)
	}); err != nil {
		log.Error("failed to subscribe to record events: ", err)
		os.Exit(1)
	}

	// Wait for interrupt signal
	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
	<-quitCh
}

func printEvent(w io.Writer, msg *nats.Msg) {
	e := events.Event{}
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		fmt.Fprintf(w, "subject: %s, message: %s\n", msg.Subject, string(msg.Data))
		return
	}

	line := fmt.Sprintf("%s %-8s", e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), natsio.Action(msg))
	if e.ID != "" {
		line += " id=" + e.ID
	}
	if e.PrevID != "" {
		line += " prev_id=" + e.PrevID
	}
	if e.Network != "" {
		line += " net=" + e.Network
	}
	if e.Count > 0 {
		line += fmt.Sprintf(" count=%d", e.Count)
	}
	fmt.Fprintln(w, line)
}
