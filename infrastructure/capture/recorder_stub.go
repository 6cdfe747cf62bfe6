//go:build !capture

package capture

import (
	"fmt"
	"time"
)

// Recorder is a stub when GoCV/OpenCV is not available
type Recorder struct{}

// RecorderOption is a functional option for configuring Recorder
type RecorderOption func(*Recorder)

// WithFilePrefix is a no-op in stub mode
func WithFilePrefix(prefix string) RecorderOption {
	return func(r *Recorder) {}
}

// WithAutoEnumerate is a no-op in stub mode
func WithAutoEnumerate(on bool) RecorderOption {
	return func(r *Recorder) {}
}

var errUnavailable = fmt.Errorf("video capture not available: build with '-tags=capture' and install OpenCV/GoCV")

// NewRecorder returns an error indicating capture is not available
func NewRecorder(device int, opts ...RecorderOption) (*Recorder, error) {
	return nil, errUnavailable
}

// Record returns an error indicating capture is not available
func (r *Recorder) Record() (time.Time, error) {
	return time.Time{}, errUnavailable
}

// Stop returns an error indicating capture is not available
func (r *Recorder) Stop() error {
	return errUnavailable
}

// Recording always reports false in stub mode
func (r *Recorder) Recording() bool {
	return false
}

// Close is a no-op in stub mode
func (r *Recorder) Close() error {
	return nil
}
