package feature

import "context"

// Stream is a live source of feature rows.
// This is a port implemented by infrastructure adapters (named pipes,
// growing CSV files, synthetic generators).
type Stream interface {
	// Name identifies the stream; it prefixes per-stream columns when
	// several streams are merged
	Name() string

	// FPS returns the nominal frame rate, or 0 if unknown
	FPS() float64

	// Open starts producing rows. The first result is the raw column
	// header; the channel delivers one value row per frame and is closed
	// when the source ends or ctx is cancelled.
	Open(ctx context.Context) ([]string, <-chan []float64, error)
}

// FrameLogger records frames to durable storage.
// This is a port implemented by the CSV logger adapter.
type FrameLogger interface {
	// Start begins a log file; refuses to overwrite unless asked
	Start(path string, overwrite bool) error

	// Log appends one frame; the header is written before the first row
	Log(f Frame) error

	// Stop closes the log file
	Stop() error

	// Logging reports whether a log file is open
	Logging() bool
}
