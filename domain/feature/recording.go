package feature

import (
	"fmt"
	"sort"
)

// Recording is an in-memory sequence of frames with a shared header.
//
// Timing is either fixed-rate (FPS > 0) or driven by a timestamp column.
// Exactly one of the two modes is active.
type Recording struct {
	header    Header
	rows      [][]float64
	fps       float64
	timeLabel string
	timeIdx   int
}

// NewRecording creates a Recording from raw rows.
//
// If fps > 0 the recording is fixed-rate and the time label is ignored.
// Otherwise timeLabel (DefaultTimeLabel if empty) must name a column whose
// values are non-decreasing timestamps in seconds.
func NewRecording(header Header, rows [][]float64, fps float64, timeLabel string) (*Recording, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("recording has no frames")
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(header))
		}
	}

	r := &Recording{header: header, rows: rows, fps: fps}

	if fps <= 0 {
		if timeLabel == "" {
			timeLabel = DefaultTimeLabel
		}
		idx, ok := header.Index(timeLabel)
		if !ok {
			return nil, fmt.Errorf("recording has no time column %q; pass an fps for fixed-rate data", timeLabel)
		}
		r.fps = 0
		r.timeLabel = timeLabel
		r.timeIdx = idx
	}

	return r, nil
}

// Header returns the recording's header
func (r *Recording) Header() Header {
	return r.header
}

// Len returns the number of frames
func (r *Recording) Len() int {
	return len(r.rows)
}

// FPS returns the fixed frame rate, or 0 for timestamp-driven recordings
func (r *Recording) FPS() float64 {
	return r.fps
}

// Frame returns the frame at index i
func (r *Recording) Frame(i int) Frame {
	return Frame{header: r.header, values: r.rows[i]}
}

// TimeAt returns the time of frame i in seconds: i/fps for fixed-rate
// recordings, the timestamp column value otherwise
func (r *Recording) TimeAt(i int) float64 {
	if r.fps > 0 {
		return float64(i) / r.fps
	}
	return r.rows[i][r.timeIdx]
}

// Duration returns the time of the last frame
func (r *Recording) Duration() float64 {
	return r.TimeAt(r.Len() - 1)
}

// IndexAtTime returns the index of the first frame at or after t.
// Timestamp-driven recordings use binary search.
func (r *Recording) IndexAtTime(t float64) (int, error) {
	max := r.Duration()
	if t < 0 || t > max {
		return 0, fmt.Errorf("cannot seek to %g s: must be between 0 and %g", t, max)
	}

	if r.fps > 0 {
		return int(t * r.fps), nil
	}

	idx := sort.Search(r.Len(), func(i int) bool {
		return r.rows[i][r.timeIdx] >= t
	})
	if idx == r.Len() {
		idx = r.Len() - 1
	}
	return idx, nil
}

// CheckIndex validates a frame index
func (r *Recording) CheckIndex(i int) error {
	if i < 0 || i >= r.Len() {
		return fmt.Errorf("invalid frame index %d: must be in range [0, %d]", i, r.Len()-1)
	}
	return nil
}
