package openface

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"panson/domain/extraction"
	"panson/infrastructure/command"
	"panson/pkg/log"
)

// Extractor implements extraction.Extractor by running FeatureExtraction
// inside the OpenFace container via docker exec
type Extractor struct {
	dockerPath    string
	containerName string
	binaryPath    string
	hostDataDir   string
	runner        command.Runner
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithExtractorDockerPath sets a custom docker executable path. Empty
// keeps the default, so sparse config files do not wipe it.
func WithExtractorDockerPath(path string) ExtractorOption {
	return func(e *Extractor) {
		if path != "" {
			e.dockerPath = path
		}
	}
}

// WithExtractorContainerName sets the container the extractor execs
// into. Empty keeps the default.
func WithExtractorContainerName(name string) ExtractorOption {
	return func(e *Extractor) {
		if name != "" {
			e.containerName = name
		}
	}
}

// WithExtractorBinaryPath sets the extraction executable path inside the
// container. Empty keeps the default.
func WithExtractorBinaryPath(path string) ExtractorOption {
	return func(e *Extractor) {
		if path != "" {
			e.binaryPath = path
		}
	}
}

// WithExtractorRunner sets a custom command runner (for testing)
func WithExtractorRunner(runner command.Runner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor creates a container-backed extractor. hostDataDir must match
// the directory the Manager mounts at /data.
func NewExtractor(hostDataDir string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		dockerPath:    "docker",
		containerName: DefaultContainerName,
		binaryPath:    DefaultBinaryPath,
		hostDataDir:   hostDataDir,
		runner:        &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// containerPath maps a host path under the data directory to its mount
// point inside the container
func (e *Extractor) containerPath(hostPath string) (string, error) {
	abs, err := filepath.Abs(hostPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", hostPath, err)
	}

	absData, err := filepath.Abs(e.hostDataDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory %s: %w", e.hostDataDir, err)
	}

	rel, err := filepath.Rel(absData, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the data directory %s", hostPath, e.hostDataDir)
	}

	return filepath.ToSlash(filepath.Join(DefaultContainerDataDir, rel)), nil
}

// ExtractBatch implements extraction.Extractor
func (e *Extractor) ExtractBatch(ctx context.Context, req *extraction.BatchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	video, err := e.containerPath(req.VideoPath)
	if err != nil {
		return err
	}
	outDir, err := e.containerPath(req.OutputDir)
	if err != nil {
		return err
	}

	args := []string{
		"exec", e.containerName, e.binaryPath,
		"-f", video,
		"-out_dir", outDir,
	}

	log.Logger().WithFields(log.Fields{
		"video":   req.VideoPath,
		"out_dir": req.OutputDir,
	}).Info("Extracting features from video")

	if err := e.runner.Run(ctx, e.dockerPath, args...); err != nil {
		return fmt.Errorf("feature extraction failed for %s: %w", req.VideoPath, err)
	}

	return nil
}

// ExtractRealtime implements extraction.Extractor. It blocks until ctx is
// cancelled or the extractor exits.
func (e *Extractor) ExtractRealtime(ctx context.Context, req *extraction.RealtimeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	outCSV, err := e.containerPath(req.OutputCSV)
	if err != nil {
		return err
	}

	args := []string{
		"exec", e.containerName, e.binaryPath,
		"-device", strconv.Itoa(req.Device),
	}
	args = append(args, req.Features.Flags()...)
	args = append(args, "-of", outCSV)

	log.Logger().WithFields(log.Fields{
		"device":   req.Device,
		"features": req.Features.String(),
		"output":   req.OutputCSV,
	}).Info("Starting realtime feature extraction")

	if err := e.runner.Run(ctx, e.dockerPath, args...); err != nil {
		if ctx.Err() != nil {
			// Cancellation ends the exec; not a failure
			return nil
		}
		return fmt.Errorf("realtime feature extraction failed: %w", err)
	}

	return nil
}

// Ensure Extractor implements extraction.Extractor
var _ extraction.Extractor = (*Extractor)(nil)
