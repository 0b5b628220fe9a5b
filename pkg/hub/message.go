// Package hub fans dashboard updates out to websocket clients.
package hub

// MessageType selects the websocket frame a payload is written as.
type MessageType int

const (
	// JSONMessage carries a frame report, sent as a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage carries an annotated JPEG, sent as a binary frame.
	BinaryMessage
)

// Message is one payload queued for every client of a hub.
// Data is shared between clients and must not be modified after broadcast.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps an already-encoded report.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps an encoded camera frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
