package scserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"panson/domain/render"
	"panson/infrastructure/command"
	"panson/pkg/log"
)

// Renderer runs scsynth in non-realtime mode over a score file
type Renderer struct {
	scsynthPath string
	runner      command.Runner
}

// RendererOption is a functional option for configuring Renderer
type RendererOption func(*Renderer)

// WithScsynthPath sets a custom scsynth executable path. Empty keeps the
// default, so sparse config files do not wipe it.
func WithScsynthPath(path string) RendererOption {
	return func(r *Renderer) {
		if path != "" {
			r.scsynthPath = path
		}
	}
}

// WithRendererRunner sets a custom command runner (for testing)
func WithRendererRunner(runner command.Runner) RendererOption {
	return func(r *Renderer) {
		r.runner = runner
	}
}

// NewRenderer creates an scsynth NRT renderer
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		scsynthPath: "scsynth",
		runner:      &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render runs the score through scsynth and writes the sound file named by
// the request. The "_" placeholder tells scsynth there is no input file.
func (r *Renderer) Render(ctx context.Context, scorePath string, req *render.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	args := []string{
		"-N", scorePath,
		"_",
		req.OutputFile(),
		strconv.Itoa(req.SampleRate),
		strings.ToUpper(req.HeaderFormat),
		req.SampleFormat,
	}

	log.Logger().WithFields(log.Fields{
		"score":  scorePath,
		"output": req.OutputFile(),
	}).Info("Rendering score")

	if err := r.runner.Run(ctx, r.scsynthPath, args...); err != nil {
		return fmt.Errorf("scsynth render failed: %w", err)
	}

	return nil
}

// VerifyInstalled checks that scsynth is available
func (r *Renderer) VerifyInstalled(ctx context.Context) error {
	_, err := r.runner.Output(ctx, r.scsynthPath, "-v")
	if err != nil {
		return fmt.Errorf("scsynth not found or not executable: %w", err)
	}
	return nil
}
