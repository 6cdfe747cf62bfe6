package scserver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"panson/domain/sonification"
)

// ScoreWriter serializes timed bundles into the binary OSC score format
// consumed by scsynth in non-realtime mode: each bundle is written as a
// big-endian int32 byte count followed by the bundle bytes.
type ScoreWriter struct{}

// NewScoreWriter creates a ScoreWriter
func NewScoreWriter() *ScoreWriter {
	return &ScoreWriter{}
}

// timetag encodes a score time offset in seconds as an OSC timetag:
// whole seconds in the upper 32 bits, the fraction scaled to 2^32 in
// the lower.
func timetag(seconds float64) uint64 {
	sec := uint64(seconds)
	frac := uint64((seconds - float64(sec)) * (1 << 32))
	return sec<<32 | frac
}

func encodeBundle(b sonification.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("#bundle")
	buf.WriteByte(0)

	if err := binary.Write(&buf, binary.BigEndian, timetag(b.Time)); err != nil {
		return nil, err
	}

	for _, msg := range b.Messages {
		om, err := toOSCMessage(msg)
		if err != nil {
			return nil, err
		}
		data, err := om.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", msg.Address, err)
		}
		if err := binary.Write(&buf, binary.BigEndian, int32(len(data))); err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// Encode writes the bundles to w in score order. scsynth requires the
// bundles in ascending time order.
func (sw *ScoreWriter) Encode(w io.Writer, bundles []sonification.Bundle) error {
	sorted := make([]sonification.Bundle, len(bundles))
	copy(sorted, bundles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	for _, b := range sorted {
		data, err := encodeBundle(b)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, int32(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the bundles as a score file at path
func (sw *ScoreWriter) WriteFile(path string, bundles []sonification.Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create score file %s: %w", path, err)
	}
	defer f.Close()

	if err := sw.Encode(f, bundles); err != nil {
		return fmt.Errorf("failed to write score file %s: %w", path, err)
	}
	return f.Close()
}
