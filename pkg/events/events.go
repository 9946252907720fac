// Package events describes the notifications emitted after the earthquake
// table was changed.
package events

import "time"

// Actions
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// Event is published after a successful mutation
type Event struct {
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	PrevID    string    `json:"prevId,omitempty"`
	Network   string    `json:"net,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(action string) *Event {
	return &Event{
		Action:    action,
		Timestamp: time.Now().Round(time.Second).UTC(),
	}
}

// Publisher is implemented by the event transports
type Publisher interface {
	Publish(e *Event) error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher which drops every event
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(e *Event) error {
	return nil
}
