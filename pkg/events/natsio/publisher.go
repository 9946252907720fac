package natsio

import (
	"encoding/json"
	"fmt"

	nats "github.com/nats-io/nats.go"
	"github.com/nsyszr/quakedb/pkg/events"
	"github.com/pkg/errors"
)

const baseSubject = "quakedb.v1.earthquakes.events"

// SubjectAll matches the subjects of all record events
const SubjectAll = baseSubject + ".*"

// Subject returns the NATS subject an action is published on
func Subject(action string) string {
	return fmt.Sprintf("%s.%s", baseSubject, action)
}

// Conn is the part of *nats.Conn used by the publisher
type Conn interface {
	Publish(subj string, data []byte) error
}

type natsPublisher struct {
	nc Conn
}

// NewPublisher creates a Publisher sending JSON encoded events to NATS
func NewPublisher(nc Conn) events.Publisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) Publish(e *events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	return p.nc.Publish(Subject(e.Action), data)
}

// Action extracts the action from a subject matched by SubjectAll
func Action(msg *nats.Msg) string {
	if len(msg.Subject) <= len(baseSubject)+1 {
		return ""
	}
	return msg.Subject[len(baseSubject)+1:]
}
