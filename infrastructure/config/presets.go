package config

import (
	"fmt"

	"panson/domain/sonification"
)

// Sonification builds the synth sonification the preset describes
func (p Preset) Sonification() (*sonification.SynthSonification, error) {
	mappings := make([]sonification.Mapping, len(p.Config.Mappings))
	for i, mc := range p.Config.Mappings {
		mappings[i] = sonification.Mapping{
			Column:  mc.Column,
			Control: mc.Control,
			InMin:   mc.InMin,
			InMax:   mc.InMax,
			OutMin:  mc.OutMin,
			OutMax:  mc.OutMax,
		}
	}

	var opts []sonification.SynthOption
	if p.Config.SynthDefFile != "" {
		opts = append(opts, sonification.WithSynthDefFile(p.Config.SynthDefFile))
	}
	if p.Config.NodeID != 0 {
		opts = append(opts, sonification.WithNodeID(p.Config.NodeID))
	}

	son, err := sonification.NewSynthSonification(p.Config.SynthDef, mappings, opts...)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Key, err)
	}
	return son, nil
}
