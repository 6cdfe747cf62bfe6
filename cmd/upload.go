package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	appdist "panson/application/distribution"
	"panson/domain/distribution"
	"panson/infrastructure/drive"
	"panson/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	uploadRender   string
	uploadFeatures string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a render and its feature CSV to Google Drive",
	Long: `Upload a rendered sonification (and optionally its feature CSV) to the
configured Drive folder and share them by link. Old renders are deleted
when the folder's quota runs out, oldest first.

Without --render the newest file in the renders directory is uploaded.

Examples:
  panson upload
  panson upload --render renders/2026-03-14-au-bells.aiff --features data/features/session.csv`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadRender, "render", "", "Rendered sound file (defaults to the newest render)")
	uploadCmd.Flags().StringVar(&uploadFeatures, "features", "", "Feature CSV to upload alongside the render")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	renderPath := uploadRender
	if renderPath == "" {
		newest, err := filesystem.FindNewestFile(cfg.Paths.RendersDirectory, ".aiff", ".aif", ".wav")
		if err != nil {
			return fmt.Errorf("no render given and none found: %w", err)
		}
		renderPath = newest
	}

	driveClient, err := drive.NewClientWithOAuth(cmd.Context(),
		cfg.Google.CredentialsFile, cfg.Google.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to create Drive client: %w", err)
	}

	return RunUploadWithDependencies(cmd.Context(), driveClient,
		cfg.Google.RendersFolderID, renderPath, uploadFeatures, os.Stdout)
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	renderPath string,
	featuresPath string,
	output io.Writer,
) error {
	cleanup := appdist.NewCleanupService(driveClient, folderID)
	service := appdist.NewUploadService(driveClient, cleanup, folderID, output)

	fmt.Fprintf(output, "Uploading %s...\n", renderPath)
	result, err := service.Distribute(ctx, renderPath, featuresPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Render link: %s\n", result.RenderURL)
	if result.FeaturesURL != "" {
		fmt.Fprintf(output, "Features link: %s\n", result.FeaturesURL)
	}
	return nil
}
