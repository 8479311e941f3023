// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

// Message is a pre-encoded JSON payload queued by the hub. A nil To
// broadcasts to every client.
type Message struct {
	Data []byte
	To   *Client
}

// NewJSONMessage creates a broadcast message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// NewDirectMessage creates a message for a single client
func NewDirectMessage(to *Client, data []byte) Message {
	return Message{Data: data, To: to}
}

// Handler processes a message received from a client. It runs on the
// client's read goroutine.
type Handler func(c *Client, data []byte)
