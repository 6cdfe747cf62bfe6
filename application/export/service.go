package export

import (
	"context"
	"fmt"
	"os"

	"panson/domain/feature"
	"panson/domain/render"
	"panson/domain/sonification"
	"panson/pkg/log"
)

// ScoreWriter serializes score bundles to a file the renderer reads
type ScoreWriter interface {
	WriteFile(path string, bundles []sonification.Bundle) error
}

// Renderer turns a score file into a sound file
type Renderer interface {
	Render(ctx context.Context, scorePath string, req *render.Request) error
}

// Service renders recordings to sound files
type Service struct {
	writer   ScoreWriter
	renderer Renderer
}

// NewService creates an export service
func NewService(writer ScoreWriter, renderer Renderer) *Service {
	return &Service{
		writer:   writer,
		renderer: renderer,
	}
}

// Export builds a score from the recording and renders it.
// The rendered file path is returned on success.
func (s *Service) Export(ctx context.Context, rec *feature.Recording, son sonification.Sonification, req *render.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid render request: %w", err)
	}

	bundles, err := BuildScore(rec, son, req.Rate, req.EndDelay)
	if err != nil {
		return "", err
	}

	score, err := os.CreateTemp("", "score-*.osc")
	if err != nil {
		return "", fmt.Errorf("failed to create score file: %w", err)
	}
	score.Close()
	defer os.Remove(score.Name())

	if err := s.writer.WriteFile(score.Name(), bundles); err != nil {
		return "", fmt.Errorf("failed to write score: %w", err)
	}

	log.Logger().WithFields(log.Fields{
		"frames": rec.Len(),
		"output": req.OutputFile(),
	}).Info("Rendering recording")

	if err := s.renderer.Render(ctx, score.Name(), req); err != nil {
		return "", err
	}

	return req.OutputFile(), nil
}
