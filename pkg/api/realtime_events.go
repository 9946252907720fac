package api

import (
	"encoding/json"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/nsyszr/quakedb/pkg/api/resource"
	"github.com/nsyszr/quakedb/pkg/events/natsio"
	log "github.com/sirupsen/logrus"
)

// realtimeEventsHandler streams the record events to a websocket client until
// the client goes away
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		msgCh := make(chan *nats.Msg, 64)
		sub, err := h.nc.ChanSubscribe(natsio.SubjectAll, msgCh)
		if err != nil {
			log.Error("api: failed to subscribe to record events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		// The client never sends data, reading only detects the close
		closedCh := make(chan struct{})
		go func() {
			defer close(closedCh)
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closedCh:
				return nil
			case msg := <-msgCh:
				// Parse the message and send it
				var data interface{}
				if err := json.Unmarshal(msg.Data, &data); err != nil {
					log.Warn("api: dropped malformed record event: ", err)
					continue
				}

				out, _ := json.Marshal(resource.NewRealtimeEvent(natsio.Action(msg), data))
				if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
					log.Error("api: failed to send realtime event: ", err)
					return nil
				}
			}
		}
	}
}
