// Package messaging defines interfaces for real-time communication.
package messaging

import "github.com/UpperPublicidade/upperchat-go/internal/domain/events"

// Publisher is the write side of the broadcaster, used by the session tracker
// and the services.
type Publisher interface {
	Publish(envelope events.Envelope)
}

// Registry is the subscription side of the broadcaster, used by the push
// channel handler.
type Registry interface {
	Subscribe() *Subscriber
	Unsubscribe(id string)
	Count() int
}
