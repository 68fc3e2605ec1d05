// Package ws is the websocket transport boundary: connection upgrade,
// identity handshake, the read loop feeding the router, and the write pump
// draining each session's sink.
package ws

import (
	"context"

	"chatwire/domain/event"
)

// Sink is one connection's buffered inbox. The router fills it, the
// connection's write pump drains it.
type Sink struct {
	Events chan event.DeliveryEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.DeliveryEvent, bufferSize)}
}

// Consume hands an event to the write pump. A full buffer drops the event:
// the record is already durable and the client reconciles through history,
// so backpressure must not stall the router.
func (s *Sink) Consume(ctx context.Context, e event.DeliveryEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
