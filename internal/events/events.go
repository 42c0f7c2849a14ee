// Package events defines the publish port the mutation service depends
// on. The websocket hub is the live-delivery implementation; the amqp
// bridge mirrors events to a topic exchange for offline consumers. Both
// are best-effort from the caller's point of view: a failed publish is
// logged by the caller and never fails the surrounding mutation.
package events

import "errors"

// Wire event names. These are the bit-exact contract with subscribers.
const (
	TaskCreated     = "task:created"
	TaskUpdated     = "task:updated"
	TaskDeleted     = "task:deleted"
	NotificationNew = "notification:new"
)

// ErrNotInitialized is returned when a publish is attempted against a
// publisher that was never wired up.
var ErrNotInitialized = errors.New("event publisher not initialized")

// Publisher is the fan-out capability. Publish reaches every connected
// subscriber, PublishToUser only the given user's room.
type Publisher interface {
	Publish(event string, payload any) error
	PublishToUser(userID, event string, payload any) error
}

// Noop discards every event. Used in tests and in tools that mutate
// state without a live audience.
type Noop struct{}

func (Noop) Publish(string, any) error               { return nil }
func (Noop) PublishToUser(string, string, any) error { return nil }
