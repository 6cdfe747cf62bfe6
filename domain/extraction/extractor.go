package extraction

import "context"

// Extractor defines the interface to the facial feature extraction tool.
// This is a port implemented by the containerized OpenFace adapter.
type Extractor interface {
	// ExtractBatch processes a recorded video, writing feature files to
	// the request's output directory. It returns when the run completes.
	ExtractBatch(ctx context.Context, req *BatchRequest) error

	// ExtractRealtime reads from a camera device and appends feature rows
	// to the request's CSV until ctx is cancelled
	ExtractRealtime(ctx context.Context, req *RealtimeRequest) error
}

// ContainerManager controls the lifecycle of the extraction container
type ContainerManager interface {
	// EnsureRunning starts the container if it is not already up
	EnsureRunning(ctx context.Context) error

	// Verify checks that the extractor executable is reachable inside
	// the running container
	Verify(ctx context.Context) error
}

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}
