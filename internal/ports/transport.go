// Package ports declares the interfaces the state core consumes from its
// external collaborators. Adapters live in subpackages.
package ports

import "context"

// InboundEvent is one structured server message delivered by the transport.
// The core never parses raw bytes or frames.
type InboundEvent struct {
	Type    string
	Payload map[string]any
}

// TransportPort delivers inbound server events and accepts outbound sends
// over the persistent socket connection.
type TransportPort interface {
	// IsConnected reports whether the socket is currently up.
	IsConnected() bool

	// Send transmits an event to the server.
	Send(ctx context.Context, eventType string, payload map[string]any) error

	// Events returns the inbound event stream. The channel is closed when the
	// connection terminates.
	Events() <-chan InboundEvent

	// Close tears down the connection.
	Close() error
}
