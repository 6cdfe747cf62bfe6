package sonification

import "panson/domain/feature"

// Sonification turns feature frames into synthesis server messages.
//
// Initialize is sent once when a player binds the sonification to a
// server; Start and Stop frame a playback or listening run; Process is
// called once per frame. Implementations must not depend on the order of
// messages within the returned batch.
type Sonification interface {
	Initialize() []Message
	Start() []Message
	Stop() []Message
	Process(f feature.Frame) []Message
}

// Group composes sonifications that share one server.
// Each call concatenates the members' messages in member order.
type Group []Sonification

// Initialize implements Sonification
func (g Group) Initialize() []Message {
	return g.collect(func(s Sonification) []Message { return s.Initialize() })
}

// Start implements Sonification
func (g Group) Start() []Message {
	return g.collect(func(s Sonification) []Message { return s.Start() })
}

// Stop implements Sonification
func (g Group) Stop() []Message {
	return g.collect(func(s Sonification) []Message { return s.Stop() })
}

// Process implements Sonification
func (g Group) Process(f feature.Frame) []Message {
	return g.collect(func(s Sonification) []Message { return s.Process(f) })
}

func (g Group) collect(fn func(Sonification) []Message) []Message {
	var msgs []Message
	for _, s := range g {
		msgs = append(msgs, fn(s)...)
	}
	return msgs
}

// Ensure Group implements Sonification
var _ Sonification = (Group)(nil)
