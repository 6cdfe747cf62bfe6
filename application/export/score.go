// Package export renders sonifications to sound files without a running
// server, by building a timestamped score and handing it to the
// non-realtime renderer.
package export

import (
	"fmt"

	"panson/domain/feature"
	"panson/domain/sonification"
)

// BuildScore turns a recording into a score: one bundle per frame at its
// playback time, framed by setup and teardown bundles.
//
// Bundle zero carries the sonification's initialization, the default
// group and the start messages. The last frame's time also carries the
// stop messages, and a final `/c_set 0 0` bundle at endDelay seconds
// after the last frame marks the score's end so the renderer keeps
// running through any release tail.
func BuildScore(rec *feature.Recording, son sonification.Sonification, rate, endDelay float64) ([]sonification.Bundle, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be positive")
	}
	if endDelay < 0 {
		return nil, fmt.Errorf("end delay must not be negative")
	}

	setup := son.Initialize()
	setup = append(setup, sonification.NewDefaultGroup())
	setup = append(setup, son.Start()...)

	bundles := []sonification.Bundle{{Time: 0, Messages: setup}}

	start := rec.TimeAt(0)
	var last float64
	for i := 0; i < rec.Len(); i++ {
		t := (rec.TimeAt(i) - start) / rate
		if msgs := son.Process(rec.Frame(i)); len(msgs) > 0 {
			bundles = append(bundles, sonification.Bundle{Time: t, Messages: msgs})
		}
		last = t
	}

	bundles = append(bundles, sonification.Bundle{Time: last, Messages: son.Stop()})
	bundles = append(bundles, sonification.Bundle{
		Time:     last + endDelay,
		Messages: []sonification.Message{sonification.NewMessage("/c_set", 0, 0)},
	})

	return bundles, nil
}
