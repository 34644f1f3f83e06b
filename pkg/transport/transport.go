// Package transport provides the ordered, bidirectional text channel
// between the client and an agent server.
package transport

import (
	"context"
)

///////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Channel is a message-oriented, ordered link to one remote endpoint.
type Channel interface {
	// ReadFrame blocks until the next inbound frame arrives, and returns
	// an error once the channel is closed by either side.
	ReadFrame() ([]byte, error)

	// WriteFrame sends text as a single frame.
	WriteFrame(text string) error

	// Close releases the channel. It is safe to call more than once.
	Close() error
}

// Dialer opens channels.
type Dialer interface {
	// Dial connects to the endpoint at url.
	Dial(ctx context.Context, url string) (Channel, error)
}
