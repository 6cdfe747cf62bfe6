package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	appext "panson/application/extraction"
	"panson/domain/extraction"
	"panson/infrastructure/config"
	"panson/infrastructure/filesystem"
	"panson/infrastructure/openface"

	"github.com/spf13/cobra"
)

var (
	extractVideo  string
	extractOutDir string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract facial features from a recorded video",
	Long: `Run the extraction container over a recorded session video and write
the feature CSV. The video must live under the configured data directory,
which is mounted into the container.

Examples:
  panson extract --video "2026-03-14 10-06-16.avi"
  panson extract --video recordings/take-001.avi --output-dir data/features`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractVideo, "video", "", "Session video path (relative paths resolve against the recordings directory)")
	extractCmd.Flags().StringVar(&extractOutDir, "output-dir", "", "Feature CSV output directory (defaults to the configured features directory)")

	extractCmd.MarkFlagRequired("video")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	service := newExtractionService(cfg)

	videoPath := extractVideo
	if !filepath.IsAbs(videoPath) {
		videoPath = filepath.Join(cfg.Paths.RecordingsDirectory(), videoPath)
	}

	outDir := extractOutDir
	if outDir == "" {
		outDir = cfg.Paths.FeaturesDirectory()
	}

	return RunExtractWithDependencies(cmd.Context(), service, videoPath, outDir, os.Stdout)
}

// newExtractionService wires the container-backed extraction service from config
func newExtractionService(cfg *config.Config) *appext.Service {
	manager := openface.NewManager(cfg.Paths.DataDirectory,
		openface.WithDockerPath(cfg.OpenFace.DockerPath),
		openface.WithContainerName(cfg.OpenFace.ContainerName),
		openface.WithImage(cfg.OpenFace.Image),
		openface.WithBinaryPath(cfg.OpenFace.BinaryPath),
		openface.WithCameraDevice(cfg.OpenFace.CameraDevice),
	)
	extractor := openface.NewExtractor(cfg.Paths.DataDirectory,
		openface.WithExtractorDockerPath(cfg.OpenFace.DockerPath),
		openface.WithExtractorContainerName(cfg.OpenFace.ContainerName),
		openface.WithExtractorBinaryPath(cfg.OpenFace.BinaryPath),
	)
	return appext.NewService(extractor, manager, filesystem.NewChecker())
}

// RunExtractWithDependencies runs the extract command with injected dependencies (for testing)
func RunExtractWithDependencies(ctx context.Context, service *appext.Service, videoPath, outputDir string, output io.Writer) error {
	fmt.Fprintf(output, "Extracting features from %s...\n", filepath.Base(videoPath))

	featuresPath, err := service.ExtractBatch(ctx, &extraction.BatchRequest{
		VideoPath: videoPath,
		OutputDir: outputDir,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Created: %s\n", featuresPath)
	return nil
}
