package sonification

import (
	"fmt"

	"panson/domain/feature"
)

// scsynth node add actions
const addToHead = int32(0)

// DefaultGroupID is the server's default group
const DefaultGroupID = int32(1)

// NewDefaultGroup returns the message that creates the default group.
// Required at the head of NRT scores, where no booted server exists.
func NewDefaultGroup() Message {
	return NewMessage("/g_new", DefaultGroupID, addToHead, int32(0))
}

// SynthSonification drives a single synth from mapped feature columns:
// /s_new on start, /n_set per frame, /n_free on stop.
type SynthSonification struct {
	synthDef     string
	synthDefFile string
	nodeID       int32
	groupID      int32
	mappings     []Mapping
	defaults     map[string]float64
}

// SynthOption is a functional option for configuring SynthSonification
type SynthOption func(*SynthSonification)

// WithSynthDefFile makes Initialize load a compiled synthdef file on the
// server before the synth is used
func WithSynthDefFile(path string) SynthOption {
	return func(s *SynthSonification) {
		s.synthDefFile = path
	}
}

// WithNodeID sets the server node ID used for the synth
func WithNodeID(id int32) SynthOption {
	return func(s *SynthSonification) {
		s.nodeID = id
	}
}

// WithGroupID sets the target group for the synth
func WithGroupID(id int32) SynthOption {
	return func(s *SynthSonification) {
		s.groupID = id
	}
}

// WithDefault sets an initial control value passed to /s_new
func WithDefault(control string, value float64) SynthOption {
	return func(s *SynthSonification) {
		s.defaults[control] = value
	}
}

// NewSynthSonification creates a SynthSonification for the named synthdef
func NewSynthSonification(synthDef string, mappings []Mapping, opts ...SynthOption) (*SynthSonification, error) {
	if synthDef == "" {
		return nil, fmt.Errorf("synthdef name is required")
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("at least one mapping is required")
	}
	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}

	s := &SynthSonification{
		synthDef: synthDef,
		nodeID:   2000,
		groupID:  DefaultGroupID,
		mappings: mappings,
		defaults: make(map[string]float64),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Mappings returns the configured feature mappings
func (s *SynthSonification) Mappings() []Mapping {
	return s.mappings
}

// Initialize implements Sonification
func (s *SynthSonification) Initialize() []Message {
	if s.synthDefFile == "" {
		return nil
	}
	return []Message{NewMessage("/d_load", s.synthDefFile)}
}

// Start implements Sonification
func (s *SynthSonification) Start() []Message {
	args := []any{s.synthDef, s.nodeID, addToHead, s.groupID}
	for control, value := range s.defaults {
		args = append(args, control, value)
	}
	return []Message{NewMessage("/s_new", args...)}
}

// Stop implements Sonification
func (s *SynthSonification) Stop() []Message {
	return []Message{NewMessage("/n_free", s.nodeID)}
}

// Process implements Sonification: one /n_set carrying every mapped
// control scaled from the frame. Missing columns are skipped so partial
// feature sets (e.g. gaze-only extraction) still sonify.
func (s *SynthSonification) Process(f feature.Frame) []Message {
	args := []any{s.nodeID}
	for _, m := range s.mappings {
		v, err := f.Value(m.Column)
		if err != nil {
			continue
		}
		args = append(args, m.Control, m.Scale(v))
	}

	if len(args) == 1 {
		return nil
	}
	return []Message{NewMessage("/n_set", args...)}
}

// Ensure SynthSonification implements Sonification
var _ Sonification = (*SynthSonification)(nil)
