package sonification

import "time"

// Message is a transport-free OSC message: a server command address and
// its arguments. Argument values may be int, int32, float64, string or
// bool; the transport adapter converts them to wire types.
type Message struct {
	Address string
	Args    []any
}

// NewMessage creates a Message
func NewMessage(address string, args ...any) Message {
	return Message{Address: address, Args: args}
}

// Bundle is a set of messages scheduled at a time offset in seconds from
// the start of a score. The order of messages inside a bundle is not
// significant.
type Bundle struct {
	Time     float64
	Messages []Message
}

// Server is the port to a sound synthesis server.
// Implemented by the scsynth OSC adapter.
type Server interface {
	// Send delivers the messages as one immediate bundle
	Send(msgs ...Message) error

	// SendAt delivers the messages as one bundle scheduled for t,
	// letting the server compensate for transport latency
	SendAt(t time.Time, msgs ...Message) error
}
