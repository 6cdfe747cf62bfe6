// Package extraction orchestrates facial feature extraction runs
package extraction

import (
	"context"
	"fmt"

	"panson/domain/extraction"
	"panson/pkg/log"
)

// Service runs feature extraction, making sure the container is up and
// the inputs exist before anything is launched
type Service struct {
	extractor extraction.Extractor
	container extraction.ContainerManager
	files     extraction.FileChecker
}

// NewService creates an extraction service
func NewService(extractor extraction.Extractor, container extraction.ContainerManager, files extraction.FileChecker) *Service {
	return &Service{
		extractor: extractor,
		container: container,
		files:     files,
	}
}

// ExtractBatch extracts features from a recorded video.
// The output CSV path is returned on success.
func (s *Service) ExtractBatch(ctx context.Context, req *extraction.BatchRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid extraction request: %w", err)
	}
	if !s.files.Exists(req.VideoPath) {
		return "", fmt.Errorf("video file not found: %s", req.VideoPath)
	}

	if err := s.prepare(ctx); err != nil {
		return "", err
	}

	log.Logger().WithFields(log.Fields{
		"video":  req.VideoPath,
		"outDir": req.OutputDir,
	}).Info("Extracting features from video")

	if err := s.extractor.ExtractBatch(ctx, req); err != nil {
		return "", fmt.Errorf("feature extraction failed: %w", err)
	}

	output := req.OutputCSV()
	if !s.files.Exists(output) {
		return "", fmt.Errorf("extraction finished but produced no output at %s", output)
	}

	log.Logger().WithField("features", output).Info("Feature extraction complete")
	return output, nil
}

// ExtractRealtime extracts features from a camera device until ctx is
// cancelled. The output CSV grows while the run is live, so it can be
// tailed by a stream.
func (s *Service) ExtractRealtime(ctx context.Context, req *extraction.RealtimeRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid extraction request: %w", err)
	}

	if err := s.prepare(ctx); err != nil {
		return err
	}

	log.Logger().WithFields(log.Fields{
		"device":   req.Device,
		"features": req.Features.String(),
		"output":   req.OutputCSV,
	}).Info("Extracting features from camera")

	if err := s.extractor.ExtractRealtime(ctx, req); err != nil {
		return fmt.Errorf("feature extraction failed: %w", err)
	}
	return nil
}

// prepare brings the container up and checks the extractor binary
func (s *Service) prepare(ctx context.Context) error {
	if err := s.container.EnsureRunning(ctx); err != nil {
		return fmt.Errorf("failed to start extraction container: %w", err)
	}
	if err := s.container.Verify(ctx); err != nil {
		return fmt.Errorf("extraction container is not usable: %w", err)
	}
	return nil
}
